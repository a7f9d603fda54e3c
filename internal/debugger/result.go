package debugger

// Eval methods reported in Result.Method.
const (
	MethodExpression    = "expression"
	MethodFrameVariable = "frame_variable"
)

// Result is the structured outcome of one Dispatcher operation.
type Result struct {
	Success    bool   `json:"success"`
	State      string `json:"state,omitempty"`
	Output     string `json:"output,omitempty"`
	Location   string `json:"location,omitempty"`
	BinaryPath string `json:"binary_path,omitempty"`
	Expression string `json:"expression,omitempty"`
	Method     string `json:"method,omitempty"`
	Error      string `json:"error,omitempty"`
	TimedOut   bool   `json:"timed_out,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

func failure(state State, err error) *Result {
	return &Result{
		Success: false,
		State:   state.String(),
		Error:   err.Error(),
	}
}
