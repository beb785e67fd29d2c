package review

import "fmt"

// Messages 展示给用户的文案
type Messages struct {
	// GenerateFailed 代理返回错误但没有给出文案
	GenerateFailed string
	// GenerateUnreachable 代理不可达
	GenerateUnreachable string
	// CommitFailed 创建任务失败
	CommitFailed string
	// CommitPartial 部分任务已创建时追加的说明，参数：已创建数、剩余数
	CommitPartial string
}

// DefaultMessages 法语文案
var DefaultMessages = Messages{
	GenerateFailed:      "Erreur IA",
	GenerateUnreachable: "Impossible de contacter l’IA",
	CommitFailed:        "Erreur lors de la création des tâches",
	CommitPartial:       "%d tâche(s) déjà créée(s), %d restante(s) à créer",
}

func (m Messages) commitFailure(base string, committed, remaining int) string {
	if base == "" {
		base = m.CommitFailed
	}
	if committed == 0 || m.CommitPartial == "" {
		return base
	}
	return base + " : " + fmt.Sprintf(m.CommitPartial, committed, remaining)
}

func (m Messages) withDefaults() Messages {
	d := DefaultMessages
	if m.GenerateFailed != "" {
		d.GenerateFailed = m.GenerateFailed
	}
	if m.GenerateUnreachable != "" {
		d.GenerateUnreachable = m.GenerateUnreachable
	}
	if m.CommitFailed != "" {
		d.CommitFailed = m.CommitFailed
	}
	if m.CommitPartial != "" {
		d.CommitPartial = m.CommitPartial
	}
	return d
}
