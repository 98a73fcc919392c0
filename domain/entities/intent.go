package entities

// IntentDefinition is one locally configured intent, sent to the server as
// part of the SetIntents batch after authentication. Field names follow the
// server's wire schema.
type IntentDefinition struct {
	Intent    string   `json:"Intent" yaml:"intent"`
	Terminals []string `json:"Terminals" yaml:"speaker"`
	Utterance []string `json:"Utterance" yaml:"utterance"`
}

// FiredIntent is a recognized voice instruction reported by the server.
type FiredIntent struct {
	Intent     string
	Data       map[string]any
	Importance int
	Terminal   string
}

// TriggerEvent is what a trigger callback receives when its intent fires.
type TriggerEvent struct {
	Intent      string
	Data        map[string]any
	Description string
	Context     map[string]any
}

// TriggerAction is a registered trigger callback. Failures inside the
// callback are the caller's responsibility.
type TriggerAction func(event TriggerEvent)

// TriggerRegistration binds an intent name (matched case-insensitively) to a
// callback. Registrations live for the session's process lifetime; there is
// no unregistration path.
type TriggerRegistration struct {
	Intent  string
	Speaker string
	Action  TriggerAction
	Context map[string]any
}
