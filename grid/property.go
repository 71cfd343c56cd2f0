package grid

import "github.com/zeu5/tabular-marl/types"

// InPosition holds on steps where the agent moved to the position
func InPosition(agent int, p Position) types.MonitorCondition {
	return func(s *types.Step) bool {
		t, ok := s.Find(agent)
		if !ok {
			return false
		}
		pos, ok := t.NextState.(Position)
		return ok && pos == p
	}
}

// PositionReached is satisfied by episodes where the agent visits the position
func PositionReached(agent int, p Position) *types.Monitor {
	monitor := types.NewMonitor()
	builder := monitor.Build()
	builder.On(InPosition(agent, p), "PositionReached").MarkSuccess()
	return monitor
}

// GoalReached is satisfied by episodes where the agent reached its goal
func GoalReached(agent int) *types.Monitor {
	monitor := types.NewMonitor()
	builder := monitor.Build()
	builder.On(types.AgentTerminated(agent), "GoalReached").MarkSuccess()
	return monitor
}
