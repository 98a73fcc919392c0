package config

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lvthome/lvtbridge/domain/entities"
)

// LoadIntents reads intent definitions from a YAML file. Every top-level
// section whose key starts with "intents" is expected to hold a list of
// definitions; malformed entries are logged and skipped so one bad entry
// never blocks the rest of the batch.
func LoadIntents(path string, logger *zap.Logger) ([]entities.IntentDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intents file: %w", err)
	}
	return ParseIntents(raw, logger)
}

// ParseIntents parses YAML intent configuration.
func ParseIntents(raw []byte, logger *zap.Logger) ([]entities.IntentDefinition, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse intents config: %w", err)
	}

	var intents []entities.IntentDefinition
	for key, section := range doc {
		if !strings.HasPrefix(strings.ToLower(key), "intents") {
			continue
		}
		if section.Kind != yaml.SequenceNode {
			logger.Error("Intent section should hold a list of intents",
				zap.String("section", key))
			continue
		}
		for i, item := range section.Content {
			parent := fmt.Sprintf("%s[%d]", key, i)
			def, ok := parseIntent(parent, item, logger)
			if ok {
				intents = append(intents, def)
			}
		}
	}
	return intents, nil
}

func parseIntent(parent string, node *yaml.Node, logger *zap.Logger) (entities.IntentDefinition, bool) {
	var fields map[string]yaml.Node
	if err := node.Decode(&fields); err != nil {
		logger.Error("Invalid intent definition", zap.String("at", parent), zap.Error(err))
		return entities.IntentDefinition{}, false
	}

	for key := range fields {
		switch key {
		case "intent", "speaker", "utterance":
		default:
			logger.Error("Unknown intent property",
				zap.String("at", parent), zap.String("property", key))
			return entities.IntentDefinition{}, false
		}
	}

	name, ok := fields["intent"]
	if !ok {
		logger.Error("Intent property not defined", zap.String("at", parent))
		return entities.IntentDefinition{}, false
	}
	def := entities.IntentDefinition{Intent: name.Value}

	utterance, ok := fields["utterance"]
	if !ok {
		logger.Error("Utterance not defined", zap.String("at", parent))
		return entities.IntentDefinition{}, false
	}
	def.Utterance = scalarOrList(utterance)
	if len(def.Utterance) == 0 {
		logger.Error("Utterance should be the (list of) phrases", zap.String("at", parent))
		return entities.IntentDefinition{}, false
	}

	def.Terminals = []string{}
	if speakers, ok := fields["speaker"]; ok {
		for _, s := range scalarOrList(speakers) {
			def.Terminals = append(def.Terminals, strings.ToLower(s))
		}
	}
	return def, true
}

// scalarOrList flattens a YAML node that may be a single scalar or a
// sequence of scalars.
func scalarOrList(node yaml.Node) []string {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "" {
			return nil
		}
		return []string{node.Value}
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			out = append(out, item.Value)
		}
		return out
	default:
		return nil
	}
}
