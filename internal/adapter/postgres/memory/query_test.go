package memory

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/google/uuid"

	"github.com/openlocalize/localizer-backend/internal/domain"
)

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// maxPlaceholder returns the highest $n index rendered in the query. pgx
// rejects any query whose placeholder count disagrees with len(args).
func maxPlaceholder(t *testing.T, query string) int {
	t.Helper()
	max := 0
	for _, m := range placeholderRe.FindAllStringSubmatch(query, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			t.Fatalf("placeholder %q: %v", m[0], err)
		}
		if n > max {
			max = n
		}
	}
	return max
}

func testQuery() domain.MemoryQuery {
	return domain.MemoryQuery{
		Text:       "hello world",
		LocaleID:   uuid.New(),
		MinQuality: 0.7,
		MinDist:    8,
		MaxDist:    15,
		Limit:      100,
	}
}

func TestSearchScoredQueryBindsEveryPlaceholder(t *testing.T) {
	t.Parallel()

	q := testQuery()

	query, args, err := searchScoredQuery(q)
	if err != nil {
		t.Fatalf("searchScoredQuery: %v", err)
	}
	if got := maxPlaceholder(t, query); got != len(args) {
		t.Errorf("%d placeholders for %d args in:\n%s", got, len(args), query)
	}

	q.ProjectID = uuid.New()
	query, args, err = searchScoredQuery(q)
	if err != nil {
		t.Fatalf("searchScoredQuery with project: %v", err)
	}
	if got := maxPlaceholder(t, query); got != len(args) {
		t.Errorf("with project filter: %d placeholders for %d args in:\n%s", got, len(args), query)
	}
}

func TestSearchPrefixQueryBindsEveryPlaceholder(t *testing.T) {
	t.Parallel()

	q := testQuery()

	query, args, err := searchPrefixQuery(q, "hello world")
	if err != nil {
		t.Fatalf("searchPrefixQuery: %v", err)
	}
	if got := maxPlaceholder(t, query); got != len(args) {
		t.Errorf("%d placeholders for %d args in:\n%s", got, len(args), query)
	}

	q.ProjectID = uuid.New()
	query, args, err = searchPrefixQuery(q, "hello world")
	if err != nil {
		t.Fatalf("searchPrefixQuery with project: %v", err)
	}
	if got := maxPlaceholder(t, query); got != len(args) {
		t.Errorf("with project filter: %d placeholders for %d args in:\n%s", got, len(args), query)
	}
}
