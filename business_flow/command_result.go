package businessflow

// CommandResult is the uniform outcome of every command.
// Expected outcomes such as a duplicate signup or an unknown key are results, not errors.
type CommandResult struct {
	Success  bool           `json:"success"`
	Inserted int            `json:"inserted"`
	Updated  int            `json:"updated"`
	Data     map[string]any `json:"data"`
}

// NewCommandResult creates a result with an empty data map
func NewCommandResult(success bool) *CommandResult {
	return &CommandResult{Success: success, Data: map[string]any{}}
}

// WithData sets a data entry and returns the result for chaining
func (r *CommandResult) WithData(key string, value any) *CommandResult {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	r.Data[key] = value
	return r
}

// outcome labels a result for metrics
func (r *CommandResult) outcome() string {
	switch {
	case !r.Success:
		return outcomeRejected
	case r.Inserted == 0 && r.Updated == 0:
		return outcomeNoop
	default:
		return outcomeApplied
	}
}
