// Package bitmask converts between the bit-per-port membership masks used by
// switch VLAN pages and ordered port-number lists. Bit i of a mask denotes
// membership of port i+1. Masks are 32 bits wide, so ports above 32 cannot be
// represented; switches with more ports are a known limitation and callers
// clamp their port count accordingly.
package bitmask

// MaxPorts is the highest port number a 32-bit mask can represent.
const MaxPorts = 32

// Decode expands a membership mask into an ascending list of port numbers.
// Only bits [0, min(totalPorts, 32)) are examined.
func Decode(mask uint32, totalPorts int) []int {
	if totalPorts > MaxPorts {
		totalPorts = MaxPorts
	}
	var ports []int
	for i := 0; i < totalPorts; i++ {
		if mask&(1<<uint(i)) != 0 {
			ports = append(ports, i+1)
		}
	}
	return ports
}

// Encode builds a membership mask from a list of port numbers. Ports outside
// [1, 32] are ignored rather than rejected; the device cannot express them.
func Encode(ports []int) uint32 {
	var mask uint32
	for _, p := range ports {
		if p < 1 || p > MaxPorts {
			continue
		}
		mask |= 1 << uint(p-1)
	}
	return mask
}
