// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package replay

import (
	"bufio"
	"bytes"
	"encoding/binary"

	"github.com/danjacques/gotracereplay/protocol/tracy"

	"github.com/pierrec/lz4/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("outbound", func() {
	var (
		sink bytes.Buffer
		out  *outbound
	)
	BeforeEach(func() {
		sink.Reset()
		out = newOutbound(bufio.NewWriter(&sink), 20)
	})

	// frames splits the sink into its decompressed frames.
	frames := func() [][]byte {
		var result [][]byte
		data := sink.Bytes()
		for len(data) > 0 {
			Expect(len(data)).To(BeNumerically(">=", 4))
			size := int(binary.LittleEndian.Uint32(data))
			Expect(len(data)).To(BeNumerically(">=", 4+size))

			raw := make([]byte, 64*1024)
			n, err := lz4.UncompressBlock(data[4:4+size], raw)
			Expect(err).ToNot(HaveOccurred())
			result = append(result, raw[:n])
			data = data[4+size:]
		}
		return result
	}

	It("writes nothing when flushing an empty buffer", func() {
		Expect(out.flush()).To(Succeed())
		Expect(out.flush()).To(Succeed())
		Expect(sink.Len()).To(BeZero())
	})

	It("writes buffered records as one length-prefixed frame", func() {
		Expect(out.send(&tracy.ThreadContext{Thread: 1})).To(Succeed())
		Expect(out.send(tracy.AckServerQueryNoop)).To(Succeed())
		Expect(sink.Len()).To(BeZero())
		Expect(out.pending()).To(Equal(6))

		Expect(out.flush()).To(Succeed())
		Expect(out.pending()).To(BeZero())
		Expect(frames()).To(Equal([][]byte{{59, 1, 0, 0, 0, 91}}))

		By("writing nothing more on a second flush")
		size := sink.Len()
		Expect(out.flush()).To(Succeed())
		Expect(sink.Len()).To(Equal(size))
	})

	It("flushes before appending once past the threshold", func() {
		first := &tracy.ZoneBegin{Timestamp: 1, Location: 2}
		second := &tracy.ZoneEnd{Timestamp: 3}

		Expect(out.send(first)).To(Succeed())
		Expect(sink.Len()).To(BeZero())
		Expect(out.send(first)).To(Succeed())
		Expect(sink.Len()).To(BeZero())
		Expect(out.pending()).To(Equal(34))

		Expect(out.send(second)).To(Succeed())
		Expect(out.pending()).To(Equal(9))
		Expect(out.flush()).To(Succeed())

		var firstRaw, secondRaw bytes.Buffer
		Expect(tracy.EncodeResponse(&firstRaw, first)).To(Succeed())
		Expect(tracy.EncodeResponse(&secondRaw, second)).To(Succeed())
		Expect(frames()).To(Equal([][]byte{
			append(firstRaw.Bytes(), firstRaw.Bytes()...),
			secondRaw.Bytes(),
		}))
	})

	It("counts sent records and frames", func() {
		records := testutil.ToFloat64(sentRecords.WithLabelValues("ZoneColor"))
		sent := testutil.ToFloat64(sentFrames)

		Expect(out.send(&tracy.ZoneColor{R: 1})).To(Succeed())
		Expect(out.flush()).To(Succeed())
		Expect(testutil.ToFloat64(sentRecords.WithLabelValues("ZoneColor"))).To(Equal(records + 1))
		Expect(testutil.ToFloat64(sentFrames)).To(Equal(sent + 1))
	})
})

var _ = Describe("RegisterMonitoring", func() {
	It("registers with a fresh registry", func() {
		reg := prometheus.NewRegistry()
		Expect(func() { RegisterMonitoring(reg) }).ToNot(Panic())
	})
})
