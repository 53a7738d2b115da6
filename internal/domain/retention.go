package domain

// RetentionPolicy defines the tiering windows, in days, measured back from
// the current time. The hot window is a suffix of the cold window's range;
// overlap is permitted.
type RetentionPolicy struct {
	HotWindowDays  int
	ColdWindowDays int
}

// NewRetentionPolicy validates and constructs a RetentionPolicy.
func NewRetentionPolicy(hotDays, coldDays int) (RetentionPolicy, error) {
	if hotDays < 0 || coldDays < 0 {
		return RetentionPolicy{}, ErrValidation("retention windows must be non-negative (hot=%d cold=%d)", hotDays, coldDays)
	}
	if hotDays > coldDays {
		return RetentionPolicy{}, ErrValidation("hot window (%d days) must not exceed cold window (%d days)", hotDays, coldDays)
	}
	return RetentionPolicy{HotWindowDays: hotDays, ColdWindowDays: coldDays}, nil
}
