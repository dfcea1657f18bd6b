package chat

import (
	"github.com/pradosdeparaiso/legalhub/internal/history"
	"github.com/pradosdeparaiso/legalhub/internal/llm"
)

// composeMessages builds the role-tagged message list for a completion call:
// one system message first, the history in the order it was received, then the
// new user turn. History is already bounded by the store; if an anomaly hands
// us more, it is forwarded untrimmed.
func composeMessages(persona string, turns []history.Turn, userText string) []llm.Message {
	msgs := make([]llm.Message, 0, len(turns)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: persona})
	for _, t := range turns {
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: userText})
	return msgs
}
