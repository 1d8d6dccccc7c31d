package domain

import (
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LookuperTestSuite struct {
	suite.Suite

	lookuper *mapLookuper
}

func TestLookuperTestSuite(t *testing.T) {
	suite.Run(t, new(LookuperTestSuite))
}

func (s *LookuperTestSuite) SetupTest() {
	s.lookuper = NewMapLookuper(map[string][]netip.Addr{
		"localhost":   {netip.MustParseAddr("127.0.0.1")},
		"example.com": {netip.MustParseAddr("1.1.1.1"), netip.MustParseAddr("::1")},
	})
}

func (s *LookuperTestSuite) TestLookup() {
	addrs, err := s.lookuper.LookupIP(context.Background(), "localhost")
	s.NoError(err)
	s.Equal([]netip.Addr{netip.MustParseAddr("127.0.0.1")}, addrs)

	addrs, err = s.lookuper.LookupIP(context.Background(), "example.com")
	s.NoError(err)
	s.Len(addrs, 2)

	// Non-existent.
	addrs, err = s.lookuper.LookupIP(context.Background(), "non-existent.com")
	s.ErrorIs(err, ErrDomainNotFound)
	s.Empty(addrs)
}

func (s *LookuperTestSuite) TestSetDel() {
	addr := netip.MustParseAddr("10.0.0.1")

	s.lookuper.Set("new.test", []netip.Addr{addr})
	addrs, err := s.lookuper.LookupIP(context.Background(), "new.test")
	s.NoError(err)
	s.Equal([]netip.Addr{addr}, addrs)

	// Empty sets are ignored.
	s.lookuper.Set("new.test", nil)
	_, err = s.lookuper.LookupIP(context.Background(), "new.test")
	s.NoError(err)

	s.lookuper.Del("new.test")
	_, err = s.lookuper.LookupIP(context.Background(), "new.test")
	s.ErrorIs(err, ErrDomainNotFound)
}

func (s *LookuperTestSuite) TestResolverLookuperIPLiteral() {
	// A literal address resolves without asking DNS.
	addrs, err := NewResolverLookuper(nil).LookupIP(context.Background(), "127.0.0.1")
	s.NoError(err)
	s.Equal([]netip.Addr{netip.MustParseAddr("127.0.0.1")}, addrs)
}
