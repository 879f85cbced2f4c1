package gpucore

import "testing"

func sizeOf(sizes []DescriptorPoolSize, typ DescriptorType) (uint32, bool) {
	for _, s := range sizes {
		if s.Type == typ {
			return s.Count, true
		}
	}
	return 0, false
}

func TestDescriptorPoolSizes(t *testing.T) {
	tests := []struct {
		name        string
		features    Features
		wantSampler uint32
		wantAccel   bool
		wantLen     int
	}{
		{"no features", 0, 2, false, 9},
		{"acceleration only", FeatureAccelerationStructure, 2, true, 10},
		{"dynamic sampling", FeaturesDynamicTextureSampling, MaxBindlessTextures, true, 10},
		{"partial dynamic sampling", FeaturesDynamicTextureSampling &^ FeatureRuntimeDescriptorArrays, 2, true, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sizes := DescriptorPoolSizes(tt.features, false)
			if len(sizes) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(sizes), tt.wantLen)
			}
			if got, _ := sizeOf(sizes, DescriptorTypeCombinedImageSampler); got != tt.wantSampler {
				t.Errorf("CombinedImageSampler = %d, want %d", got, tt.wantSampler)
			}
			if _, ok := sizeOf(sizes, DescriptorTypeAccelerationStructure); ok != tt.wantAccel {
				t.Errorf("AccelerationStructure present = %v, want %v", ok, tt.wantAccel)
			}
			if got, _ := sizeOf(sizes, DescriptorTypeSampler); got != 8192 {
				t.Errorf("Sampler = %d, want 8192", got)
			}
			if got, _ := sizeOf(sizes, DescriptorTypeSampledImage); got != 32768 {
				t.Errorf("SampledImage = %d, want 32768", got)
			}
			if got, _ := sizeOf(sizes, DescriptorTypeStorageBuffer); got != 1024 {
				t.Errorf("StorageBuffer = %d, want 1024", got)
			}
		})
	}
}

func TestNewDescriptorPoolDesc(t *testing.T) {
	low := NewDescriptorPoolDesc("low", 0, true)
	high := NewDescriptorPoolDesc("high", 0, false)

	if low.MaxSets != 7168 || high.MaxSets != 2048 {
		t.Errorf("MaxSets = %d/%d, want 7168/2048", low.MaxSets, high.MaxSets)
	}
	want := DescriptorPoolFreeIndividual | DescriptorPoolUpdateAfterBind
	if low.Flags != want {
		t.Errorf("Flags = %#b, want %#b", low.Flags, want)
	}
	if low.Label != "low" {
		t.Errorf("Label = %q", low.Label)
	}
}
