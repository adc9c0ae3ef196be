package audio

import "testing"

func TestPushMonoDownmixesAndWraps(t *testing.T) {
	ring := make([]float32, 4)
	pos := pushMono(ring, 0, []float32{1, 3, 2, 4, 5, 7}, 2)
	if pos != 3 {
		t.Fatalf("pos=%d want=3", pos)
	}
	want := []float32{2, 3, 6, 0}
	for i, v := range want {
		if ring[i] != v {
			t.Fatalf("ring[%d]=%f want=%f", i, ring[i], v)
		}
	}
	pos = pushMono(ring, pos, []float32{8, 8, 9, 9}, 2)
	if pos != 1 || ring[3] != 8 || ring[0] != 9 {
		t.Fatalf("wrap failed: pos=%d ring=%v", pos, ring)
	}
}

func TestReadRingOrdersOldestFirst(t *testing.T) {
	ring := []float32{5, 6, 3, 4}
	dst := make([]float32, 3)
	readRing(ring, 2, dst)
	want := []float32{4, 5, 6}
	for i, v := range want {
		if dst[i] != v {
			t.Fatalf("dst=%v want=%v", dst, want)
		}
	}
}

func TestReadRingPadsLongRequests(t *testing.T) {
	ring := []float32{1, 2}
	dst := []float32{9, 9, 9, 9}
	readRing(ring, 0, dst)
	want := []float32{0, 0, 1, 2}
	for i, v := range want {
		if dst[i] != v {
			t.Fatalf("dst=%v want=%v", dst, want)
		}
	}
}

func TestDeviceScorePrefersMicrophones(t *testing.T) {
	if deviceScore("Built-in Microphone", 1) <= deviceScore("Monitor of Speakers", 2) {
		t.Fatalf("microphone should outrank monitor")
	}
}
