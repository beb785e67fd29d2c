package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptTaskGenerationV1 PromptID = "task_generation_v1"
)

// messageFile 模板中的一条消息
type messageFile struct {
	role schema.RoleType
	path string
}

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	files, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}

	msgs := make([]schema.MessagesTemplate, 0, len(files))
	for _, f := range files {
		text, err := readEmbeddedText(f.path)
		if err != nil {
			return nil, err
		}
		switch f.role {
		case schema.System:
			msgs = append(msgs, schema.SystemMessage(text))
		default:
			msgs = append(msgs, schema.UserMessage(text))
		}
	}

	tpl := einoprompt.FromMessages(schema.FString, msgs...)
	r.cache[id] = tpl
	return tpl, nil
}

// resolvePromptFiles 返回模板的消息序列（顺序即发送顺序）
func resolvePromptFiles(id PromptID) ([]messageFile, error) {
	switch id {
	case PromptTaskGenerationV1:
		return []messageFile{
			{role: schema.System, path: "templates/task_generation_v1.system.txt"},
			{role: schema.User, path: "templates/task_generation_v1.scope.txt"},
			{role: schema.User, path: "templates/task_generation_v1.user.txt"},
		}, nil
	default:
		return nil, fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
