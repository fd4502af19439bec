package control

import (
	"fmt"
	"strings"
)

// Form selects how the second and third controller parameters are read.
type Form string

const (
	FormStandard Form = "standard"
	FormParallel Form = "parallel"
)

func ParseForm(s string) (Form, error) {
	switch f := Form(strings.ToLower(strings.TrimSpace(s))); f {
	case FormStandard, FormParallel:
		return f, nil
	}
	return "", fmt.Errorf("%w: pid form %q is neither %q nor %q", ErrInvalidConfiguration, s, FormStandard, FormParallel)
}

// Validate accepts only the exact canonical names. Use ParseForm for user
// input that may need normalizing.
func (f Form) Validate() error {
	switch f {
	case FormStandard, FormParallel:
		return nil
	}
	return fmt.Errorf("%w: pid form %q is neither %q nor %q", ErrInvalidConfiguration, string(f), FormStandard, FormParallel)
}

func (f Form) String() string { return string(f) }

// UnmarshalText lets Form be decoded from YAML and flag values.
func (f *Form) UnmarshalText(text []byte) error {
	parsed, err := ParseForm(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f Form) MarshalText() ([]byte, error) {
	return []byte(f), nil
}

// TimeConstants converts params into gain, integral and derivative time
// constants.
func (f Form) TimeConstants(params [3]float64) (kp, ti, td float64, err error) {
	kp = params[0]
	switch f {
	case FormStandard:
		return kp, params[1], params[2], nil
	case FormParallel:
		if kp == 0 {
			return 0, 0, 0, fmt.Errorf("%w: parallel form requires kP != 0 (got kI=%g, kD=%g)", ErrDegenerateGain, params[1], params[2])
		}
		if params[1] != 0 {
			ti = kp / params[1]
		}
		td = params[2] / kp
		return kp, ti, td, nil
	}
	return 0, 0, 0, f.Validate()
}
