package tools

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// RouterDecision is the per-turn augmentation decision: whether the provider
// web search tool is declared for this request, and with what use cap.
type RouterDecision struct {
	UseWebSearch     bool
	MaxWebSearchUses int
}

const defaultMaxWebSearchUses = 3

// freshInfoTriggers are phrases whose presence in the user message signals
// that the model needs current information to answer well.
var freshInfoTriggers = []string{
	"latest",
	"current version",
	"newest",
	"up to date",
	"up-to-date",
	"best practice",
	"best practices",
	"recommended way",
	"api documentation",
	"api docs",
	"documentation for",
	"compare",
	"comparison",
	"which is better",
	"deprecated",
	"changelog",
	"release notes",
	"pricing",
	"rate limit",
}

// usagePatterns are phrases that, combined with a generate action, suggest
// the request touches a concrete external integration worth researching.
var usagePatterns = []string{
	"how do i",
	"how to",
	"integrate",
	"integration",
	"connect to",
	"sync",
	"webhook",
	"api",
	"oauth",
	"authenticate",
}

// Decide returns the augmentation decision for one turn. The matching is a
// deterministic keyword gate over a fixed vocabulary, not a correctness
// guarantee; requests without trigger phrases run without search.
func Decide(message string, action string) RouterDecision {
	lowered := strings.ToLower(message)

	useSearch := false
	for _, trigger := range freshInfoTriggers {
		if strings.Contains(lowered, trigger) {
			useSearch = true
			break
		}
	}

	if !useSearch && action == "generate" {
		for _, pattern := range usagePatterns {
			if strings.Contains(lowered, pattern) {
				useSearch = true
				break
			}
		}
	}

	decision := RouterDecision{UseWebSearch: useSearch}
	if useSearch {
		decision.MaxWebSearchUses = defaultMaxWebSearchUses
	}

	log.Debug().Bool("use_web_search", decision.UseWebSearch).Str("action", action).Msg("tool router decision")
	return decision
}
