package dto

// ToolCallRequest asks the gateway to dispatch one tool call.
type ToolCallRequest struct {
	Service   string         `json:"service"`
	Tool      string         `json:"tool"`
	Args      map[string]any `json:"args,omitempty"`
	Fallbacks []string       `json:"fallbacks,omitempty"`
}

// Validate checks required fields.
func (r *ToolCallRequest) Validate() error {
	if r.Service == "" {
		return errMissingField("service")
	}
	if r.Tool == "" {
		return errMissingField("tool")
	}
	return nil
}

// ServiceHealthRequest toggles the health flag of a registered service.
type ServiceHealthRequest struct {
	Healthy *bool `json:"healthy"`
}

type errMissingField string

func (e errMissingField) Error() string {
	return "missing required field: " + string(e)
}
