package springz_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSpringz(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Springz Suite")
}
