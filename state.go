package dispatch

// DeviceState is the lifecycle state of one device slot during a run.
type DeviceState int

//go:generate go tool enumer -type=DeviceState -trimprefix=Device state.go

const (
	// DeviceFree: the device finished its work successfully and still holds
	// allocated resources, so it can be claimed for remapped work.
	DeviceFree DeviceState = iota

	// DeviceBusy: exactly one controller goroutine is executing on the device.
	DeviceBusy

	// DeviceFailed: execution on the device failed; it is never reused for
	// the same job.
	DeviceFailed
)
