package gpucore

// DescriptorType is the type of a descriptor binding.
type DescriptorType uint8

// Descriptor types.
const (
	DescriptorTypeSampler DescriptorType = iota
	DescriptorTypeCombinedImageSampler
	DescriptorTypeSampledImage
	DescriptorTypeStorageImage
	DescriptorTypeUniformTexelBuffer
	DescriptorTypeStorageTexelBuffer
	DescriptorTypeUniformBuffer
	DescriptorTypeStorageBuffer
	DescriptorTypeUniformBufferDynamic
	DescriptorTypeStorageBufferDynamic
	DescriptorTypeInputAttachment
	DescriptorTypeAccelerationStructure
)

// Features is a set of optional physical device features that change how
// the per-device descriptor pool is sized.
type Features uint32

// Device features.
const (
	FeaturePartiallyBoundDescriptorBindings Features = 1 << iota
	FeatureUpdateDescriptorSampleImageAfterBind
	FeatureNonUniformImageArrayIndexing
	FeatureRuntimeDescriptorArrays
	FeatureAccelerationStructure
)

// FeaturesDynamicTextureSampling is the feature set required to bind every
// texture through a single runtime-sized descriptor array.
const FeaturesDynamicTextureSampling = FeaturePartiallyBoundDescriptorBindings |
	FeatureUpdateDescriptorSampleImageAfterBind |
	FeatureNonUniformImageArrayIndexing |
	FeatureRuntimeDescriptorArrays |
	FeatureAccelerationStructure

// Has reports whether every feature in want is present.
func (f Features) Has(want Features) bool { return f&want == want }

// MaxBindlessTextures is the combined image sampler budget when dynamic
// texture sampling is available.
const MaxBindlessTextures = 1 << 16

// DescriptorPoolFlags configures descriptor pool creation.
type DescriptorPoolFlags uint8

// Descriptor pool flags.
const (
	// DescriptorPoolFreeIndividual allows sets to be freed one by one.
	DescriptorPoolFreeIndividual DescriptorPoolFlags = 1 << iota
	// DescriptorPoolUpdateAfterBind allows sets to be updated after binding.
	DescriptorPoolUpdateAfterBind
)

// DescriptorPoolSize is the number of descriptors of one type in a pool.
type DescriptorPoolSize struct {
	Type  DescriptorType
	Count uint32
}

// DescriptorPoolDesc describes a descriptor pool.
type DescriptorPoolDesc struct {
	Label   string
	MaxSets uint32
	Sizes   []DescriptorPoolSize
	Flags   DescriptorPoolFlags
}

// descriptorLimit holds the per-type budget for the low and high priority tiers.
type descriptorLimit struct {
	low, high uint32
}

func (l descriptorLimit) pick(lowPriority bool) uint32 {
	if lowPriority {
		return l.low
	}
	return l.high
}

func descriptorTypeLimit(t DescriptorType, dynamicSampling bool) descriptorLimit {
	switch t {
	case DescriptorTypeSampler:
		return descriptorLimit{8192, 8192}
	case DescriptorTypeCombinedImageSampler:
		if dynamicSampling {
			return descriptorLimit{MaxBindlessTextures, MaxBindlessTextures}
		}
		return descriptorLimit{2, 2}
	case DescriptorTypeSampledImage:
		return descriptorLimit{32768, 32768}
	default:
		return descriptorLimit{1024, 1024}
	}
}

// DescriptorPoolSizes returns the per-type descriptor budget for a device.
//
// lowPriority selects the tier for runners allowed to run low priority
// performance jobs; the per-type counts are equal across tiers today but
// MaxDescriptorSets differs. Acceleration structure descriptors are only
// requested when the device supports them.
func DescriptorPoolSizes(features Features, lowPriority bool) []DescriptorPoolSize {
	dynamic := features.Has(FeaturesDynamicTextureSampling)
	types := []DescriptorType{
		DescriptorTypeCombinedImageSampler,
		DescriptorTypeSampledImage,
		DescriptorTypeSampler,
		DescriptorTypeUniformBuffer,
		DescriptorTypeUniformBufferDynamic,
		DescriptorTypeStorageBufferDynamic,
		DescriptorTypeStorageBuffer,
		DescriptorTypeStorageImage,
		DescriptorTypeInputAttachment,
	}
	if features.Has(FeatureAccelerationStructure) {
		types = append(types, DescriptorTypeAccelerationStructure)
	}

	sizes := make([]DescriptorPoolSize, len(types))
	for i, t := range types {
		sizes[i] = DescriptorPoolSize{Type: t, Count: descriptorTypeLimit(t, dynamic).pick(lowPriority)}
	}
	return sizes
}

// MaxDescriptorSets returns the descriptor set budget of the tier.
func MaxDescriptorSets(lowPriority bool) uint32 {
	if lowPriority {
		return 7168
	}
	return 2048
}

// NewDescriptorPoolDesc builds the per-device descriptor pool description.
func NewDescriptorPoolDesc(label string, features Features, lowPriority bool) *DescriptorPoolDesc {
	return &DescriptorPoolDesc{
		Label:   label,
		MaxSets: MaxDescriptorSets(lowPriority),
		Sizes:   DescriptorPoolSizes(features, lowPriority),
		Flags:   DescriptorPoolFreeIndividual | DescriptorPoolUpdateAfterBind,
	}
}
