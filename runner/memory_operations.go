// File: runner/memory_operations.go

package runner

import (
	"fmt"
	"github.com/notargets/gocca"
)

// CopyToDevice copies the host storage of binding name to the device
func (kr *Runner) CopyToDevice(name string) error {
	b, mem, err := kr.arrayBinding(name)
	if err != nil {
		return err
	}
	ptr, bytes, err := hostPointer(b.HostBinding)
	if err != nil {
		return fmt.Errorf("copy %s to device: %w", name, err)
	}
	if bytes != b.Bytes() {
		return fmt.Errorf("copy %s to device: host holds %d bytes, device %d", name, bytes, b.Bytes())
	}
	if bytes > 0 {
		mem.CopyFrom(ptr, bytes)
	}
	return nil
}

// CopyFromDevice copies device memory of binding name back to host storage
func (kr *Runner) CopyFromDevice(name string) error {
	b, mem, err := kr.arrayBinding(name)
	if err != nil {
		return err
	}
	ptr, bytes, err := hostPointer(b.HostBinding)
	if err != nil {
		return fmt.Errorf("copy %s from device: %w", name, err)
	}
	if bytes != b.Bytes() {
		return fmt.Errorf("copy %s from device: host holds %d bytes, device %d", name, bytes, b.Bytes())
	}
	if bytes > 0 {
		mem.CopyTo(ptr, bytes)
	}
	return nil
}

func (kr *Runner) arrayBinding(name string) (*DeviceBinding, *gocca.OCCAMemory, error) {
	b, ok := kr.Bindings[name]
	if !ok {
		return nil, nil, fmt.Errorf("binding %s not found", name)
	}
	if b.IsScalar || b.IsTemp || b.HostBinding == nil {
		return nil, nil, fmt.Errorf("binding %s has no host storage", name)
	}
	mem, ok := kr.PooledMemory[name]
	if !ok {
		return nil, nil, fmt.Errorf("binding %s not allocated", name)
	}
	return b, mem, nil
}
