package events

import "github.com/atomicstack/kbconsole/internal/logging"

type DeviceTracer struct{}

var Device = DeviceTracer{}

func (DeviceTracer) Connect(name string, index int) {
	logging.Trace("device.connect", map[string]interface{}{"name": name, "index": index})
}

func (DeviceTracer) Disconnect(name string) {
	logging.Trace("device.disconnect", map[string]interface{}{"name": name})
}

func (DeviceTracer) Apply(name, setting string, value interface{}) {
	logging.Trace("device.apply", map[string]interface{}{"name": name, "setting": setting, "value": value})
}

func (DeviceTracer) Reset(name string) {
	logging.Trace("device.reset", map[string]interface{}{"name": name})
}
