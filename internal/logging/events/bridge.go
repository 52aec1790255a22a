package events

import "github.com/atomicstack/kbconsole/internal/logging"

type BridgeTracer struct{}

type PromptTracer struct{}

var (
	Bridge = BridgeTracer{}
	Prompt = PromptTracer{}
)

func (BridgeTracer) Line(length int) {
	logging.Trace("bridge.line", map[string]interface{}{"length": length})
}

func (BridgeTracer) Closed(lines int) {
	logging.Trace("bridge.closed", map[string]interface{}{"lines": lines})
}

func (PromptTracer) Begin(prompt string) {
	logging.Trace("prompt.begin", map[string]interface{}{"prompt": prompt})
}

func (PromptTracer) Submit(length int) {
	logging.Trace("prompt.submit", map[string]interface{}{"length": length})
}

func (PromptTracer) Cancel(reason string) {
	logging.Trace("prompt.cancel", map[string]interface{}{"reason": reason})
}

func (PromptTracer) Discard(lines int) {
	logging.Trace("prompt.discard", map[string]interface{}{"lines": lines})
}
