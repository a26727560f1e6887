package config

// SecretStringValue replaces secret values whenever configuration is dumped
// or logged.
const SecretStringValue = "<secret>"

// SecretString holds configuration values which may carry credentials (for
// example tracking prefixes with tracker keys) and must not end up in logs or
// debug reports.
type SecretString string

// Value returns actual value.
func (s SecretString) Value() string {
	return string(s)
}

// String implements fmt.Stringer for zap.Stringer and friends.
func (s SecretString) String() string {
	if len(s) == 0 {
		return ""
	}
	return SecretStringValue
}

// MarshalJSON hides value from JSON encoders (zap.Any included).
func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte(`"` + SecretStringValue + `"`), nil
}

// MarshalYAML hides value from config dumps.
func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return SecretStringValue, nil
}
