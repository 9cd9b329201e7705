package device

import (
	"fmt"
	"regexp"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/achilleasa/wavefront/log"
)

type DeviceType uint8

// Supported device types.
const (
	CpuDevice   DeviceType = 1 << iota
	GpuDevice              = 1 << iota
	OtherDevice            = 1 << iota
	AllDevices             = 0xFF
)

// The default number of invocations per workgroup.
const DefaultWorkGroupSize = 64

var (
	indentRegex = regexp.MustCompile("(?m)^")
	logger      = log.New("device")
)

func (dt DeviceType) String() string {
	switch dt {
	case CpuDevice:
		return "CPU"
	case GpuDevice:
		return "GPU"
	case OtherDevice:
		return "Other"
	}
	panic("device: unsupported device type")
}

// A kernel entrypoint. It is invoked once per workgroup with the arguments
// bound via Kernel.SetArgs; returning from it acts as the end-of-group barrier.
type KernelFunc func(group *WorkGroup, args []any) error

// A named set of kernel entrypoints that can be loaded into a device.
type Program map[string]KernelFunc

// A compute device that executes kernels as batches of concurrently running
// workgroups. Workgroups only communicate through atomics on shared buffers.
type Device struct {
	Name string
	Type DeviceType

	// Number of workgroups that may execute concurrently.
	ComputeUnits int

	// Invocations per workgroup when a dispatch does not specify one.
	WorkGroupSize int

	mu      sync.Mutex
	program Program

	// Bytes currently held by allocated buffers.
	allocated atomic.Int64
}

// A list of devices.
type DeviceList []*Device

// Create a new device with the given number of compute units. If computeUnits
// is <= 0 the device uses one compute unit per available CPU.
func NewDevice(name string, computeUnits int) *Device {
	if computeUnits <= 0 {
		computeUnits = runtime.GOMAXPROCS(0)
	}
	return &Device{
		Name:          name,
		Type:          CpuDevice,
		ComputeUnits:  computeUnits,
		WorkGroupSize: DefaultWorkGroupSize,
	}
}

// Implements Stringer.
func (d *Device) String() string {
	return fmt.Sprintf(
		"Name: %s\nType: %s\nSpecs: %d computation units, %d invocations per workgroup",
		d.Name,
		d.Type.String(),
		d.ComputeUnits,
		d.WorkGroupSize,
	)
}

// Initialize device by loading the kernels of one or more programs. Calling
// Init on an initialized device merges the new kernels into its program;
// kernels that are already loaded are left untouched.
func (d *Device) Init(programs ...Program) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.program == nil {
		d.program = make(Program)
	}
	for _, program := range programs {
		for name, fn := range program {
			if fn == nil {
				return fmt.Errorf("compute device (%s): kernel %s has no entrypoint", d.Name, name)
			}
			if _, exists := d.program[name]; !exists {
				d.program[name] = fn
			}
		}
	}

	logger.Debugf("device %s: loaded %d kernels", d.Name, len(d.program))
	return nil
}

// Shut down the device and unload its kernels.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.program = nil
}

// Load kernel by name.
func (d *Device) Kernel(name string) (*Kernel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.program == nil {
		return nil, fmt.Errorf("compute device (%s): could not load kernel %s: %w", d.Name, name, ErrDeviceNotInitialized)
	}
	fn, exists := d.program[name]
	if !exists {
		return nil, fmt.Errorf("compute device (%s): could not load kernel %s: %w", d.Name, name, ErrKernelNotFound)
	}

	return &Kernel{
		device: d,
		fn:     fn,
		name:   name,
	}, nil
}

// Get the number of bytes held by buffers allocated on this device.
func (d *Device) AllocatedBytes() int64 {
	return d.allocated.Load()
}

// Information about the available compute platforms and their devices.
type PlatformInfo struct {
	Name    string
	Vendor  string
	Version string
	Devices DeviceList
}

func (pl PlatformInfo) String() string {
	out := fmt.Sprintf("Version:    %s\nName:       %s\nVendor:     %s\nDevices:\n", pl.Version, pl.Name, pl.Vendor)
	for dIdx, d := range pl.Devices {
		out += fmt.Sprintf("  Device %02d:\n", dIdx)
		out += indentRegex.ReplaceAllString(d.String(), "    ")
		out += "\n\n"
	}
	return out
}

// Get information about supported platforms and devices.
func GetPlatformInfo() ([]PlatformInfo, error) {
	return []PlatformInfo{
		{
			Name:    "goroutine",
			Vendor:  "wavefront",
			Version: runtime.Version(),
			Devices: DeviceList{
				NewDevice(fmt.Sprintf("%s/%s software device", runtime.GOOS, runtime.GOARCH), 0),
			},
		},
	}, nil
}

// Scan all available platforms and select devices that match the given query.
func SelectDevices(typeMask DeviceType, matchName string) (DeviceList, error) {
	platforms, err := GetPlatformInfo()
	if err != nil {
		return nil, err
	}

	var nameRegex *regexp.Regexp
	if matchName != "" {
		if nameRegex, err = regexp.Compile(matchName); err != nil {
			return nil, fmt.Errorf("device: invalid device name filter %q: %w", matchName, err)
		}
	}

	list := make(DeviceList, 0)
	for _, p := range platforms {
		for _, d := range p.Devices {
			// Match type
			if d.Type&typeMask != d.Type {
				continue
			}

			// Match name
			if nameRegex != nil && !nameRegex.MatchString(d.Name) {
				continue
			}

			list = append(list, d)
		}
	}
	return list, nil
}
