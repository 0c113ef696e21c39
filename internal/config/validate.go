package config

import "errors"

func ValidateForRun(cfg *Config) error {
	var errs []error

	if cfg.StudyAPIURL == "" {
		errs = append(errs, ErrStudyAPIURLMissing)
	}
	if cfg.StudyID == "" {
		errs = append(errs, ErrStudyIDMissing)
	}
	if err := cfg.Redis.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
