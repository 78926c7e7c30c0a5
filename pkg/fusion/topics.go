package fusion

import (
	"github.com/teslashibe/go-alejo/pkg/events"
)

// ModalityStatus announces that an adapter became available or went away.
type ModalityStatus struct {
	Modality Modality `json:"modality"`
	Active   bool     `json:"active"`
}

// ContextChange announces a new situational context.
type ContextChange struct {
	Context string `json:"context"`
}

// SettingsPatch carries a partial configuration and/or profile update.
type SettingsPatch struct {
	Config  *ConfigPatch  `json:"config,omitempty"`
	Profile *ProfilePatch `json:"profile,omitempty"`
}

// Inbound topics: adapters and providers publish, the engine subscribes.
var (
	TopicGaze           = events.NewTopic[RawInput]("eye:gaze")
	TopicDwell          = events.NewTopic[RawInput]("eye:dwell")
	TopicGesture        = events.NewTopic[RawInput]("gesture:detected")
	TopicVoice          = events.NewTopic[RawInput]("voice:command")
	TopicSwitch         = events.NewTopic[RawInput]("switch:activated")
	TopicTouch          = events.NewTopic[RawInput]("touch:detected")
	TopicModalityStatus = events.NewTopic[ModalityStatus]("modality:status")
	TopicProfileUpdate  = events.NewTopic[UserProfile]("profile:update")
	TopicContextChange  = events.NewTopic[ContextChange]("context:change")
	TopicSettingsUpdate = events.NewTopic[SettingsPatch]("settings:update")
)

// CommandExecuted is published for every dispatched command.
type CommandExecuted struct {
	Command    Command `json:"command"`
	Processed  bool    `json:"processed"`
	ExecutedAt int64   `json:"executed_at"`
}

// ClickEvent is published when a click command executes.
type ClickEvent struct {
	Position Point    `json:"position"`
	Source   Modality `json:"source"`
}

// SwipeEvent is published when a swipe command executes.
type SwipeEvent struct {
	Direction string   `json:"direction"`
	Source    Modality `json:"source"`
}

// DirectiveEvent is published when a named command executes.
type DirectiveEvent struct {
	Text   string   `json:"text"`
	Source Modality `json:"source"`
}

// PrioritiesUpdated is published whenever profile or context priorities change.
type PrioritiesUpdated struct {
	Priorities        Priorities `json:"priorities"`
	Context           string     `json:"context,omitempty"`
	ContextPriorities Priorities `json:"context_priorities,omitempty"`
}

// Initialized is published once the engine has subscribed to its inputs.
type Initialized struct {
	Active []Modality `json:"active"`
}

// Outbound topics: the engine publishes, consumers subscribe.
var (
	TopicCommandExecuted   = events.NewTopic[CommandExecuted]("multimodal:command:executed")
	TopicClick             = events.NewTopic[ClickEvent]("multimodal:click")
	TopicSwipe             = events.NewTopic[SwipeEvent]("multimodal:swipe")
	TopicDirective         = events.NewTopic[DirectiveEvent]("multimodal:command")
	TopicConflictResolved  = events.NewTopic[Decision]("multimodal:conflict:resolved")
	TopicPrioritiesUpdated = events.NewTopic[PrioritiesUpdated]("multimodal:priorities:updated")
	TopicInitialized       = events.NewTopic[Initialized]("multimodal:initialized")
)

var modalityExecuted = func() map[Modality]events.Topic[CommandExecuted] {
	topics := make(map[Modality]events.Topic[CommandExecuted], len(AllModalities))
	for _, m := range AllModalities {
		topics[m] = events.NewTopic[CommandExecuted](string(m) + ":command:executed")
	}
	return topics
}()

// ModalityExecutedTopic is where commands without a dedicated event type
// are announced, one topic per modality.
func ModalityExecutedTopic(m Modality) events.Topic[CommandExecuted] {
	if t, ok := modalityExecuted[m]; ok {
		return t
	}
	return events.NewTopic[CommandExecuted](string(m) + ":command:executed")
}
