package domain

// Unknown is the sentinel used when caller identity cannot be derived
// from request metadata. Extraction is total: it never fails, it falls
// back to this value.
const Unknown = "unknown"

// CallContext carries the identity of the call that triggered a payment.
type CallContext struct {
	AgentID  string
	ToolName string
}

// NewCallContext builds a context, substituting Unknown for empty fields.
func NewCallContext(agentID, toolName string) CallContext {
	if agentID == "" {
		agentID = Unknown
	}
	if toolName == "" {
		toolName = Unknown
	}
	return CallContext{AgentID: agentID, ToolName: toolName}
}

// CallContextFromMeta extracts a CallContext from a loosely-typed
// metadata bag, tolerating missing or mistyped fields.
func CallContextFromMeta(meta map[string]any) CallContext {
	agentID, _ := meta["agent_id"].(string)
	toolName, _ := meta["tool_name"].(string)
	return NewCallContext(agentID, toolName)
}
