package modelrouter

import "strings"

// Isolation describes the sandboxing applied to the selected path.
type Isolation struct {
	Network       bool `json:"network"`
	Persistence   bool `json:"persistence"`
	RedactSecrets bool `json:"redactSecrets"`
}

// Decision is the outcome of routing one task.
type Decision struct {
	Provider  string    `json:"provider"`
	Reason    string    `json:"reason"`
	Isolation Isolation `json:"isolation"`
}

// Content touching any of these terms never leaves the local path.
var internalKeywords = []string{
	"校规", "课程", "学生", "成绩", "内部", "涉密", "账号", "密码",
	"secret", "token",
}

// Route classifies a task onto the local or online processing path. Content
// explicitly marked internal, or containing any internal keyword, stays local
// with network access cut off; everything else goes online without
// persistence. Classification is deterministic.
func Route(taskType, content, sensitivity string) Decision {
	if strings.EqualFold(sensitivity, "internal") {
		return localDecision("sensitivity marked internal")
	}
	lower := strings.ToLower(content)
	for _, kw := range internalKeywords {
		if strings.Contains(lower, kw) {
			return localDecision("content matched internal keyword: " + kw)
		}
	}
	return Decision{
		Provider: ProviderOnline,
		Reason:   "no internal markers found for task " + taskType,
		Isolation: Isolation{
			Network:       true,
			Persistence:   false,
			RedactSecrets: true,
		},
	}
}

func localDecision(reason string) Decision {
	return Decision{
		Provider: ProviderLocal,
		Reason:   reason,
		Isolation: Isolation{
			Network:       false,
			Persistence:   true,
			RedactSecrets: true,
		},
	}
}
