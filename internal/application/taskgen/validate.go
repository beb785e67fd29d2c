package taskgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"abricot-ai-api/internal/domain/entity"
)

// SchemaValidationError 模型输出不满足生成结果约束
type SchemaValidationError struct {
	Issues []string
}

func (e *SchemaValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "generation result validation failed"
	}
	return "generation result validation failed: " + strings.Join(e.Issues, "; ")
}

var (
	allowedTopLevelFields = map[string]struct{}{"tasks": {}}
	allowedDraftFields    = map[string]struct{}{"title": {}, "description": {}, "status": {}, "priority": {}}
)

// ParseGenerationResult 把模型返回的原始文本严格解析为 GenerationResult。
// 返回值二选一：成功时 error 为 nil；失败时 error 一定是 *SchemaValidationError，且不返回部分结果。
func ParseGenerationResult(content string) (*entity.GenerationResult, error) {
	raw := strings.TrimSpace(content)
	if raw == "" {
		return nil, &SchemaValidationError{Issues: []string{"response is empty"}}
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var top any
	if err := dec.Decode(&top); err != nil {
		return nil, &SchemaValidationError{Issues: []string{"response is not valid JSON: " + err.Error()}}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &SchemaValidationError{Issues: []string{"response has trailing data after the JSON value"}}
	}

	obj, ok := top.(map[string]any)
	if !ok {
		return nil, &SchemaValidationError{Issues: []string{"response must be a JSON object"}}
	}

	var issues []string
	issues = append(issues, unknownFields("", obj, allowedTopLevelFields)...)

	rawTasks, ok := obj["tasks"]
	if !ok {
		issues = append(issues, "tasks is required")
		return nil, &SchemaValidationError{Issues: issues}
	}
	items, ok := rawTasks.([]any)
	if !ok {
		issues = append(issues, "tasks must be an array")
		return nil, &SchemaValidationError{Issues: issues}
	}
	if n := len(items); n < entity.GenerationMinTasks || n > entity.GenerationMaxTasks {
		issues = append(issues, fmt.Sprintf("tasks must contain between %d and %d items, got %d",
			entity.GenerationMinTasks, entity.GenerationMaxTasks, n))
	}

	drafts := make([]entity.TaskDraft, 0, len(items))
	for i, item := range items {
		d, itemIssues := parseDraft(fmt.Sprintf("tasks[%d]", i), item)
		issues = append(issues, itemIssues...)
		drafts = append(drafts, d)
	}

	if len(issues) > 0 {
		return nil, &SchemaValidationError{Issues: issues}
	}
	return &entity.GenerationResult{Tasks: drafts}, nil
}

func parseDraft(path string, item any) (entity.TaskDraft, []string) {
	d := entity.TaskDraft{
		Status:   entity.TaskStatusTodo,
		Priority: entity.TaskPriorityMedium,
	}

	obj, ok := item.(map[string]any)
	if !ok {
		return d, []string{path + " must be an object"}
	}

	issues := unknownFields(path+".", obj, allowedDraftFields)

	if v, present := obj["title"]; !present {
		issues = append(issues, path+".title is required")
	} else if s, ok := v.(string); !ok {
		issues = append(issues, path+".title must be a string")
	} else if s = strings.TrimSpace(s); !entity.ValidTitle(s) {
		issues = append(issues, fmt.Sprintf("%s.title must be %d to %d characters",
			path, entity.DraftTitleMinLen, entity.DraftTitleMaxLen))
	} else {
		d.Title = s
	}

	if v, present := obj["description"]; present {
		if s, ok := v.(string); !ok {
			issues = append(issues, path+".description must be a string")
		} else if s = strings.TrimSpace(s); !entity.ValidDescription(s) {
			issues = append(issues, fmt.Sprintf("%s.description must be at most %d characters",
				path, entity.DraftDescriptionMaxLen))
		} else {
			d.Description = s
		}
	}

	if v, present := obj["status"]; present {
		s, ok := v.(string)
		if !ok || !entity.TaskStatus(s).Valid() {
			issues = append(issues, fmt.Sprintf("%s.status invalid: %v", path, v))
		} else {
			d.Status = entity.TaskStatus(s)
		}
	}

	if v, present := obj["priority"]; present {
		s, ok := v.(string)
		if !ok || !entity.TaskPriority(s).Valid() {
			issues = append(issues, fmt.Sprintf("%s.priority invalid: %v", path, v))
		} else {
			d.Priority = entity.TaskPriority(s)
		}
	}

	return d, issues
}

// unknownFields 返回不在白名单中的字段（排序后，保证报错稳定）
func unknownFields(prefix string, obj map[string]any, allowed map[string]struct{}) []string {
	var extra []string
	for k := range obj {
		if _, ok := allowed[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	issues := make([]string, 0, len(extra))
	for _, k := range extra {
		issues = append(issues, prefix+k+" is not allowed")
	}
	return issues
}
