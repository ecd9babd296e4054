package pipeline

// Branch is where the pipeline goes after analysis.
type Branch string

const (
	BranchTools     Branch = "tools"
	BranchRetrieval Branch = "retrieval"
)

// Route maps a routing decision to a branch. Only tool_invocation
// takes the tools branch; everything else retrieves, including
// direct_escalation, which still generates an answer and leaves the
// escalation decision to the decider.
func Route(analysis *QueryAnalysisResult) Branch {
	if analysis != nil && analysis.Routing == RoutingToolInvocation {
		return BranchTools
	}
	return BranchRetrieval
}
