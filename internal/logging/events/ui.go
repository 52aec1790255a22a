package events

import "github.com/atomicstack/kbconsole/internal/logging"

type UITracer struct{}

type ActionTracer struct{}

type CommandTracer struct{}

var (
	UI      = UITracer{}
	Action  = ActionTracer{}
	Command = CommandTracer{}
)

func (UITracer) MenuEnter(label, command string, depth int) {
	logging.Trace("menu.enter", map[string]interface{}{
		"label":   label,
		"command": command,
		"depth":   depth,
	})
}

func (UITracer) MenuCursor(root string, cursor int) {
	logging.Trace("menu.cursor", map[string]interface{}{"root": root, "cursor": cursor})
}

func (UITracer) MenuReset(root string) {
	logging.Trace("menu.reset", map[string]interface{}{"root": root})
}

func (UITracer) Mode(mode string) {
	logging.Trace("ui.mode", map[string]interface{}{"mode": mode})
}

func (UITracer) Key(key string) {
	logging.Trace("ui.key", map[string]interface{}{"key": key})
}

func (ActionTracer) Error(err error) {
	if err == nil {
		return
	}
	logging.Trace("action.error", map[string]interface{}{"error": err.Error()})
}

func (ActionTracer) Success(info string) {
	logging.Trace("action.success", map[string]interface{}{"info": info})
}

func (CommandTracer) Queue(label, command string) {
	logging.Trace("command.queue", map[string]interface{}{"label": label, "command": command})
}

func (CommandTracer) Skip(label, reason string) {
	logging.Trace("command.skip", map[string]interface{}{"label": label, "reason": reason})
}

func (CommandTracer) Result(label string, ok bool) {
	logging.Trace("command.result", map[string]interface{}{"label": label, "ok": ok})
}
