package classify

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"civicpulse/internal/domain/trend"
)

type fakeSemantic struct {
	domains []string
	err     error
	delay   time.Duration
	calls   int
}

func (f *fakeSemantic) ClassifyDomains(ctx context.Context, title, summary string) ([]string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.domains, f.err
}

func newTestClassifier(semantic trend.SemanticClassifier) *Classifier {
	return NewClassifier(DefaultReference(), semantic, Config{
		FallbackTimeout: 50 * time.Millisecond,
	}, zerolog.Nop())
}

func TestClassifyDomainsRequiresTwoKeywords(t *testing.T) {
	c := newTestClassifier(nil)

	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{
			name:  "two keywords tag the domain",
			title: "Medicaid expansion fight puts hospital funding on the ballot",
			want:  []string{"Healthcare"},
		},
		{
			name:  "single keyword is discarded",
			title: "Local hospital reopens cafeteria",
			want:  nil,
		},
		{
			name:  "two domains tagged independently",
			title: "Wildfire smoke and carbon emissions strain medicaid and public health budgets",
			want:  []string{"Environment", "Healthcare"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := trend.Trend{ID: "t1", Title: tt.title}
			if err := c.Classify(context.Background(), &tr); err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if !reflect.DeepEqual(tr.PolicyDomains, tt.want) {
				t.Errorf("PolicyDomains = %v, want %v", tr.PolicyDomains, tt.want)
			}
		})
	}
}

func TestClassifyInheritsSourceDomains(t *testing.T) {
	c := newTestClassifier(nil)

	tr := trend.Trend{
		ID:    "t1",
		Title: "Morning roundup",
		Sources: []trend.Source{
			{Platform: "rss", Domains: []string{"healthcare"}},
			{Platform: "rss", Domains: []string{"Environment"}},
		},
	}

	if err := c.Classify(context.Background(), &tr); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	want := []string{"Environment", "Healthcare"}
	if !reflect.DeepEqual(tr.PolicyDomains, want) {
		t.Errorf("PolicyDomains = %v, want %v", tr.PolicyDomains, want)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	c := newTestClassifier(nil)

	tr := trend.Trend{
		ID: "t1",
		Title: "Governor Newsom signs rent control and affordable housing bill " +
			"for San Francisco and Los Angeles",
		Summary: "Tenant groups and the ACLU backed the measure in California.",
	}

	if err := c.Classify(context.Background(), &tr); err != nil {
		t.Fatalf("first Classify() error = %v", err)
	}

	first := tr
	if err := c.Classify(context.Background(), &tr); err != nil {
		t.Fatalf("second Classify() error = %v", err)
	}

	if !reflect.DeepEqual(tr.PolicyDomains, first.PolicyDomains) {
		t.Errorf("PolicyDomains changed on re-run: %v vs %v", tr.PolicyDomains, first.PolicyDomains)
	}
	if !reflect.DeepEqual(tr.Geographies, first.Geographies) {
		t.Errorf("Geographies changed on re-run: %v vs %v", tr.Geographies, first.Geographies)
	}
	if tr.Granularity != first.Granularity {
		t.Errorf("Granularity changed on re-run: %v vs %v", tr.Granularity, first.Granularity)
	}
	if !reflect.DeepEqual(tr.Politicians, first.Politicians) {
		t.Errorf("Politicians changed on re-run: %v vs %v", tr.Politicians, first.Politicians)
	}
	if !reflect.DeepEqual(tr.Organizations, first.Organizations) {
		t.Errorf("Organizations changed on re-run: %v vs %v", tr.Organizations, first.Organizations)
	}
}

func TestClassifyGeographyGranularity(t *testing.T) {
	c := newTestClassifier(nil)

	tests := []struct {
		name      string
		title     string
		wantCodes []string
		wantGran  trend.Granularity
	}{
		{
			name:      "city match is local",
			title:     "Seattle council debates zoning",
			wantCodes: []string{"US-WA"},
			wantGran:  trend.GranularityLocal,
		},
		{
			name:      "state match without city is state",
			title:     "Texas legislature passes budget",
			wantCodes: []string{"US-TX"},
			wantGran:  trend.GranularityState,
		},
		{
			name:      "country match without domestic scope is international",
			title:     "Sanctions package targets Russia",
			wantCodes: []string{"RU"},
			wantGran:  trend.GranularityInternational,
		},
		{
			name:      "city outranks state and country",
			title:     "Chicago and Illinois officials respond to Canada wildfire smoke",
			wantCodes: []string{"CA", "US-IL"},
			wantGran:  trend.GranularityLocal,
		},
		{
			name:      "no match defaults to national",
			title:     "Federal budget talks stall",
			wantCodes: []string{"US"},
			wantGran:  trend.GranularityNational,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := trend.Trend{ID: "t1", Title: tt.title}
			if err := c.Classify(context.Background(), &tr); err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if !reflect.DeepEqual(tr.Geographies, tt.wantCodes) {
				t.Errorf("Geographies = %v, want %v", tr.Geographies, tt.wantCodes)
			}
			if tr.Granularity != tt.wantGran {
				t.Errorf("Granularity = %v, want %v", tr.Granularity, tt.wantGran)
			}
		})
	}
}

func TestClassifyEntities(t *testing.T) {
	c := newTestClassifier(nil)

	tr := trend.Trend{
		ID: "t1",
		Title: "AOC and Senator Sanders press the EPA over obamacare-era " +
			"clean air rules",
	}

	if err := c.Classify(context.Background(), &tr); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	wantPoliticians := []string{"Alexandria Ocasio-Cortez", "Bernie Sanders"}
	if !reflect.DeepEqual(tr.Politicians, wantPoliticians) {
		t.Errorf("Politicians = %v, want %v", tr.Politicians, wantPoliticians)
	}

	wantOrgs := []string{"Environmental Protection Agency"}
	if !reflect.DeepEqual(tr.Organizations, wantOrgs) {
		t.Errorf("Organizations = %v, want %v", tr.Organizations, wantOrgs)
	}
}

func TestClassifySemanticFallback(t *testing.T) {
	t.Run("used when no domain found", func(t *testing.T) {
		semantic := &fakeSemantic{domains: []string{"Agriculture"}}
		c := newTestClassifier(semantic)

		tr := trend.Trend{ID: "t1", Title: "Corn futures rally on export news"}
		if err := c.Classify(context.Background(), &tr); err != nil {
			t.Fatalf("Classify() error = %v", err)
		}

		if semantic.calls != 1 {
			t.Errorf("semantic calls = %d, want 1", semantic.calls)
		}
		if !reflect.DeepEqual(tr.PolicyDomains, []string{"Agriculture"}) {
			t.Errorf("PolicyDomains = %v, want [Agriculture]", tr.PolicyDomains)
		}
	})

	t.Run("skipped when keywords matched", func(t *testing.T) {
		semantic := &fakeSemantic{domains: []string{"Agriculture"}}
		c := newTestClassifier(semantic)

		tr := trend.Trend{ID: "t1", Title: "Medicaid and medicare funding standoff"}
		if err := c.Classify(context.Background(), &tr); err != nil {
			t.Fatalf("Classify() error = %v", err)
		}

		if semantic.calls != 0 {
			t.Errorf("semantic calls = %d, want 0", semantic.calls)
		}
	})

	t.Run("timeout yields empty set", func(t *testing.T) {
		semantic := &fakeSemantic{domains: []string{"Agriculture"}, delay: time.Second}
		c := newTestClassifier(semantic)

		tr := trend.Trend{ID: "t1", Title: "Corn futures rally on export news"}
		if err := c.Classify(context.Background(), &tr); err != nil {
			t.Fatalf("Classify() error = %v", err)
		}

		if len(tr.PolicyDomains) != 0 {
			t.Errorf("PolicyDomains = %v, want empty", tr.PolicyDomains)
		}
	})

	t.Run("error yields empty set", func(t *testing.T) {
		semantic := &fakeSemantic{err: errors.New("model unavailable")}
		c := newTestClassifier(semantic)

		tr := trend.Trend{ID: "t1", Title: "Corn futures rally on export news"}
		if err := c.Classify(context.Background(), &tr); err != nil {
			t.Fatalf("Classify() error = %v", err)
		}

		if len(tr.PolicyDomains) != 0 {
			t.Errorf("PolicyDomains = %v, want empty", tr.PolicyDomains)
		}
	})
}

func TestContainsTerm(t *testing.T) {
	tests := []struct {
		text string
		term string
		want bool
	}{
		{"the aca survives another challenge", "aca", true},
		{"students left academy early", "aca", false},
		{"mail-in ballot rules tighten", "mail-in ballot", true},
		{"roe v. wade overturned", "roe v. wade", true},
	}

	for _, tt := range tests {
		if got := containsTerm(normalize(tt.text), tt.term); got != tt.want {
			t.Errorf("containsTerm(%q, %q) = %v, want %v", tt.text, tt.term, got, tt.want)
		}
	}
}
