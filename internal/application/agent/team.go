package agent

import domainAgent "github.com/edachat/backend/internal/domain/agent"

// Team groups the coordinator and the specialists sharing one generator.
type Team struct {
	Coordinator   *Coordinator
	Analyst       *Analyst
	Visualizer    *Visualizer
	Consultant    *Consultant
	CodeGenerator *CodeGenerator
}

// NewTeam builds every agent on gen.
func NewTeam(gen domainAgent.Generator) *Team {
	return &Team{
		Coordinator:   NewCoordinator(gen),
		Analyst:       NewAnalyst(gen),
		Visualizer:    NewVisualizer(gen),
		Consultant:    NewConsultant(gen),
		CodeGenerator: NewCodeGenerator(gen),
	}
}
