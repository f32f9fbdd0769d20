// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package capture

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("StringTable probing", func() {
	// Every non-empty string collides on identifier 10.
	collide := func(s string) uint64 {
		if s == "" {
			return 0
		}
		return 10
	}

	var st *StringTable
	BeforeEach(func() {
		st = NewStringTable()
		st.hash = collide
	})

	It("probes forward past identifiers bound to other strings", func() {
		Expect(st.Intern("name")).To(Equal(uint64(10)))
		Expect(st.Intern("function")).To(Equal(uint64(11)))
		Expect(st.Intern("file")).To(Equal(uint64(12)))

		By("finding existing bindings along the probe")
		Expect(st.Intern("function")).To(Equal(uint64(11)))
		Expect(st.Intern("file")).To(Equal(uint64(12)))
		Expect(st.Len()).To(Equal(4))
	})

	It("assigns identifiers in insertion order", func() {
		Expect(st.Intern("file")).To(Equal(uint64(10)))
		Expect(st.Intern("name")).To(Equal(uint64(11)))
	})

	It("probes past the empty string's identifier", func() {
		st.hash = func(string) uint64 { return 0 }
		Expect(st.Intern("")).To(Equal(uint64(0)))
		Expect(st.Intern("zero")).To(Equal(uint64(1)))
	})
})
