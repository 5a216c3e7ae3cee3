package live

import (
	"math/rand/v2"

	"github.com/zhouzirui/z-meeting/internal/model/transcript"
)

// DefaultSpeaker labels messages typed by the operator.
const DefaultSpeaker = "Meeting Participant"

// Scenario is a canned meeting question used for demos.
type Scenario struct {
	Speaker string
	Message string
}

// Scenarios are the canned questions SimulateQuestion chooses from.
var Scenarios = []Scenario{
	{Speaker: "Manager", Message: "Can you give us a quick status update on your current project?"},
	{Speaker: "Client", Message: "What's your timeline for delivery?"},
	{Speaker: "Team Lead", Message: "Do you have any blockers we should know about?"},
	{Speaker: "Stakeholder", Message: "How does this align with our quarterly goals?"},
	{Speaker: "Colleague", Message: "Would you like to share your screen and walk us through this?"},
}

// IntN is satisfied by *rand.Rand from math/rand/v2.
type IntN interface {
	IntN(n int) int
}

// PickScenario selects a scenario uniformly at random. A nil source uses the global generator.
func PickScenario(src IntN) Scenario {
	if src == nil {
		return Scenarios[rand.IntN(len(Scenarios))]
	}
	return Scenarios[src.IntN(len(Scenarios))]
}

// SimulateQuestion sends a random canned question through Send.
func (c *Channel) SimulateQuestion(src IntN) (transcript.Turn, error) {
	s := PickScenario(src)
	return c.Send(s.Message, s.Speaker)
}
