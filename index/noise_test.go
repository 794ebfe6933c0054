package index

import "testing"

func TestClassifyNoiseSystemDir(t *testing.T) {
	flags, _ := ClassifyNoise("/usr/lib/x86_64-linux-gnu/libc.so")
	if flags&NoiseSystemDir == 0 {
		t.Errorf("expected NoiseSystemDir for /usr/ path, got %v", flags)
	}
}

func TestClassifyNoiseBuildDir(t *testing.T) {
	flags, _ := ClassifyNoise("/home/u/project/node_modules/pkg/index.js")
	if flags&NoiseBuildDir == 0 {
		t.Errorf("expected NoiseBuildDir, got %v", flags)
	}
}

func TestClassifyNoiseAppDataPreservesDotfiles(t *testing.T) {
	flags, _ := ClassifyNoise("/home/u/.bashrc")
	if flags&NoiseAppDataDir != 0 {
		t.Errorf("bare dotfile should not be APP_DATA_DIR, got %v", flags)
	}

	flags2, _ := ClassifyNoise("/home/u/.mozilla/firefox/abc123.default/places.sqlite")
	if flags2&NoiseAppDataDir == 0 {
		t.Errorf("expected NoiseAppDataDir for nested hidden app dir, got %v", flags2)
	}
}

func TestClassifyNoiseHashySegment(t *testing.T) {
	flags, _ := ClassifyNoise("/home/u/.cache/pip/http/3b/2f/a1b2c3d4e5f60718293a4b5c6d7e8f90")
	if flags&NoiseHashySeg == 0 {
		t.Errorf("expected NoiseHashySeg for long hex segment, got %v", flags)
	}
	flags2, _ := ClassifyNoise("/home/u/work/550e8400-e29b-41d4-a716-446655440000/data")
	if flags2&NoiseHashySeg == 0 {
		t.Errorf("expected NoiseHashySeg for UUID segment, got %v", flags2)
	}
}

func TestClassifyNoiseVeryDeepAndDepthSaturation(t *testing.T) {
	path := "/a"
	for i := 0; i < 20; i++ {
		path += "/seg"
	}
	flags, depth := ClassifyNoise(path)
	if flags&NoiseVeryDeep == 0 {
		t.Errorf("expected NoiseVeryDeep at depth 21, got flags %v depth %d", flags, depth)
	}
	if depth != 21 {
		t.Errorf("depth = %d, want 21", depth)
	}

	long := ""
	for i := 0; i < 300; i++ {
		long += "/seg"
	}
	if _, d := ClassifyNoise(long); d != 255 {
		t.Errorf("depth of 300-component path = %d, want 255 (saturated)", d)
	}
}
