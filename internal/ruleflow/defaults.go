package ruleflow

import "time"

// DefaultClassName is used when no engine class name is configured.
const DefaultClassName = "RulesEngine"

// DefaultRuleName names the rule seeded into a fresh locked package.
const DefaultRuleName = "rule_initialisations"

// IDGenerator produces document-unique identifiers.
type IDGenerator interface {
	Generate() string
}

// NewDefault builds the document used when nothing could be loaded: a single
// locked package holding one default rule.
func NewDefault(appID, runtimeID, className string, now time.Time, ids IDGenerator) *Configuration {
	if className == "" {
		className = DefaultClassName
	}
	stamp := now.UTC().Format(TimestampLayout)
	return &Configuration{
		Version: FormatVersion,
		Metadata: Metadata{
			AppID:      appID,
			ClassName:  className,
			CreatedAt:  stamp,
			ModifiedAt: stamp,
			RuntimeID:  runtimeID,
		},
		Imports:         []string{},
		Constants:       []string{},
		HelperFunctions: []string{},
		Packages: []Package{
			{
				ID:             ids.Generate(),
				Name:           LockedPackageName,
				ExecutionOrder: 0,
				Rules: []Rule{
					{
						ID:   ids.Generate(),
						Name: DefaultRuleName,
						Code: "pass",
					},
				},
			},
		},
	}
}
