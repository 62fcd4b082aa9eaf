package manifest

// dtypeSizes is the fixed safetensors dtype -> element-size-in-bytes table.
// Unknown dtypes fall back to 1 byte rather than erroring, a documented,
// conservative choice carried over from the tensor-size arithmetic in
// original_source/vekt_core/src/utils.rs.
var dtypeSizes = map[string]int{
	"F64":  8,
	"F32":  4,
	"F16":  2,
	"BF16": 2,
	"I64":  8,
	"I32":  4,
	"I16":  2,
	"I8":   1,
	"U64":  8,
	"U32":  4,
	"U16":  2,
	"U8":   1,
	"BOOL": 1,
}

// DtypeSize returns the element size in bytes for a safetensors dtype name.
// Dtypes absent from the fixed table fall back to 1 byte.
func DtypeSize(dtype string) int {
	if size, ok := dtypeSizes[dtype]; ok {
		return size
	}
	return 1
}

// TensorByteSize returns the total payload size of a tensor with the given
// dtype and shape: product(shape) * DtypeSize(dtype). A shape with any zero
// dimension, or an empty shape (a scalar), yields a well-defined size.
func TensorByteSize(dtype string, shape []int64) int64 {
	elemSize := int64(DtypeSize(dtype))
	count := int64(1)
	for _, dim := range shape {
		count *= dim
	}
	return count * elemSize
}
