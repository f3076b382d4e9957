//go:build nhnative

package native

/*
#cgo LDFLAGS: -lnhdycore
#include <stdlib.h>
#include "packed.h"
*/
import "C"

import (
	"runtime"
	"unsafe"
)

const available = true

func invokeInit(p packed) int {
	return invoke(p, func(ptrs *unsafe.Pointer, ints *C.int, doubles *C.double) C.int {
		return C.nh_init_packed(ptrs, ints, doubles)
	})
}

func invokeRun(p packed) int {
	return invoke(p, func(ptrs *unsafe.Pointer, ints *C.int, doubles *C.double) C.int {
		return C.nh_run_packed(ptrs, ints, doubles)
	})
}

// invoke pins the Field storage and hands the library a C allocated pointer
// table, since Go memory passed to C may not hold Go pointers
func invoke(p packed, call func(*unsafe.Pointer, *C.int, *C.double) C.int) int {
	var pinner runtime.Pinner
	defer pinner.Unpin()

	table := (*unsafe.Pointer)(C.malloc(C.size_t(len(p.ptrs)+1) * C.size_t(unsafe.Sizeof(uintptr(0)))))
	defer C.free(unsafe.Pointer(table))
	slots := unsafe.Slice(table, len(p.ptrs)+1)
	for i, ptr := range p.ptrs {
		if ptr != nil {
			pinner.Pin(ptr)
		}
		slots[i] = ptr
	}

	ints := make([]C.int, len(p.ints)+1)
	for i, v := range p.ints {
		ints[i] = C.int(v)
	}
	doubles := make([]C.double, len(p.doubles)+1)
	for i, v := range p.doubles {
		doubles[i] = C.double(v)
	}
	return int(call(table, &ints[0], &doubles[0]))
}
