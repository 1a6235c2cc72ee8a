// internal/audio/device.go
package audio

import (
	"fmt"

	"github.com/gen2brain/malgo"

	"github.com/ColonelBlimp/cwcodec/internal/morse"
)

// DeviceInfo describes one audio endpoint
type DeviceInfo struct {
	Index   int
	Name    string
	Default bool
}

func initContext() (*malgo.AllocatedContext, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init audio context: %w", morse.ErrCaptureUnavailable, err)
	}
	return ctx, nil
}

func freeContext(ctx *malgo.AllocatedContext) error {
	if err := ctx.Uninit(); err != nil {
		return fmt.Errorf("uninit context: %w", err)
	}
	ctx.Free()
	return nil
}

func enumerate(ctx *malgo.AllocatedContext, kind malgo.DeviceType) ([]malgo.DeviceInfo, error) {
	infos, err := ctx.Devices(kind)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return infos, nil
}

// selectDevice resolves a config device index. A negative index selects the
// backend default and returns nil.
func selectDevice(ctx *malgo.AllocatedContext, kind malgo.DeviceType, index int) (*malgo.DeviceID, error) {
	if index < 0 {
		return nil, nil
	}
	devices, err := enumerate(ctx, kind)
	if err != nil {
		return nil, err
	}
	if index >= len(devices) {
		return nil, fmt.Errorf("%w: device index %d out of range (have %d devices)",
			morse.ErrCaptureUnavailable, index, len(devices))
	}
	return &devices[index].ID, nil
}

// ListDevices returns the capture or playback devices known to the backend.
func ListDevices(kind malgo.DeviceType) ([]DeviceInfo, error) {
	ctx, err := initContext()
	if err != nil {
		return nil, err
	}
	defer func() { _ = freeContext(ctx) }()

	infos, err := enumerate(ctx, kind)
	if err != nil {
		return nil, err
	}
	return describe(infos), nil
}

func describe(infos []malgo.DeviceInfo) []DeviceInfo {
	out := make([]DeviceInfo, len(infos))
	for i, info := range infos {
		out[i] = DeviceInfo{
			Index:   i,
			Name:    info.Name(),
			Default: info.IsDefault != 0,
		}
	}
	return out
}
