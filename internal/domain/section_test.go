package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSectionTimeCodes(t *testing.T) {
	s := &Section{Schedule: " 2M34, 4T12;6N1\r\n"}
	require.Equal(t, []string{"2M34", "4T12", "6N1"}, s.TimeCodes())

	require.Empty(t, (&Section{}).TimeCodes())
}

func TestSectionKey(t *testing.T) {
	require.Equal(t, "CIN0130-A", (&Section{Code: " cin0130", Class: "a "}).Key())
	require.Equal(t, "CIN0130", SectionKey("CIN0130", ""))
}
