package summarizer

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// DatePlaceholder is replaced with the broadcast date when rendering a prompt
const DatePlaceholder = "{{date}}"

const defaultPrompt = `あなたは防災行政無線の放送内容を要約するアシスタントです。
放送日時は {{date}} です。
書き起こしには誤認識が含まれることがあります。文脈から補正し、住民が知るべき要点を1〜2文の日本語で簡潔にまとめてください。
要約すべき内容がない場合は何も出力しないでください。`

const idLayout = "20060102150405"

// Prompt is the summarizer's system prompt, reloadable from disk
type Prompt struct {
	path string

	mu   sync.RWMutex
	text string
}

// LoadPrompt reads the prompt at path. An empty path uses the built-in prompt.
func LoadPrompt(path string) (*Prompt, error) {
	p := &Prompt{path: path, text: defaultPrompt}
	if path == "" {
		return p, nil
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Path returns the file the prompt was loaded from
func (p *Prompt) Path() string {
	return p.path
}

// Reload re-reads the prompt file. The previous text is kept on failure.
func (p *Prompt) Reload() error {
	if p.path == "" {
		return nil
	}
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read prompt %s: %w", p.path, err)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return fmt.Errorf("prompt %s is empty", p.path)
	}

	p.mu.Lock()
	p.text = text
	p.mu.Unlock()
	return nil
}

// Render returns the prompt for a session, with its broadcast date filled in
func (p *Prompt) Render(streamID string) string {
	p.mu.RLock()
	text := p.text
	p.mu.RUnlock()

	date := streamID
	if t, err := time.ParseInLocation(idLayout, streamID, time.Local); err == nil {
		date = t.Format("2006年1月2日 15:04")
	}
	if strings.Contains(text, DatePlaceholder) {
		return strings.ReplaceAll(text, DatePlaceholder, date)
	}
	return text + "\n\n放送日時: " + date
}
