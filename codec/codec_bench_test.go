package codec

import (
	"testing"
)

type benchField struct {
	Name string  `json:"name"`
	F    float64 `json:"f,omitempty"`
	I    int64   `json:"i,omitempty"`
}

type benchSnapshot struct {
	Kind    string       `json:"kind"`
	Scale   float64      `json:"scale"`
	Offset  int64        `json:"offset"`
	ZPoints []float64    `json:"zero_points"`
	QValues []int64      `json:"qvalues"`
	Fields  []benchField `json:"fields"`
}

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkCodecUnmarshal[T any](b *testing.B, c Codec, data []byte, dst *T) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var v T
	b.ResetTimer()
	for b.Loop() {
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
	if dst != nil {
		*dst = v
	}
}

func benchSnapshotValue() benchSnapshot {
	s := benchSnapshot{
		Kind:    "quantizer",
		Scale:   5.0 / 255.0,
		Offset:  128,
		ZPoints: make([]float64, 16),
		QValues: make([]int64, 256),
		Fields: []benchField{
			{Name: "n_bits", I: 8},
			{Name: "rmin", F: -2},
			{Name: "rmax", F: 3},
		},
	}
	for i := range s.ZPoints {
		s.ZPoints[i] = float64(i * 8)
	}
	for i := range s.QValues {
		s.QValues[i] = int64(i) - 128
	}
	return s
}

func BenchmarkCodec_Marshal_Snapshot(b *testing.B) {
	s := benchSnapshotValue()

	b.Run("stdlib", func(b *testing.B) { benchmarkCodecMarshal(b, JSON{}, s) })
	b.Run("go-json", func(b *testing.B) { benchmarkCodecMarshal(b, GoJSON{}, s) })
}

func BenchmarkCodec_Unmarshal_Snapshot(b *testing.B) {
	jsonData := MustMarshal(JSON{}, benchSnapshotValue())

	b.Run("stdlib", func(b *testing.B) {
		var sink benchSnapshot
		benchmarkCodecUnmarshal(b, JSON{}, jsonData, &sink)
		_ = sink
	})
	b.Run("go-json", func(b *testing.B) {
		var sink benchSnapshot
		benchmarkCodecUnmarshal(b, GoJSON{}, jsonData, &sink)
		_ = sink
	})
}
