package legal

import (
	"context"
	"fmt"
	"time"

	"legalqa/internal/cache"
	"legalqa/internal/metrics"
	"legalqa/internal/providers"

	"github.com/rs/zerolog"
)

// ActNameRequired is returned by RetrieverTest when the passages are spread
// over too many files to answer reliably.
const ActNameRequired = "Please provide act name along with the query to search for answers"

const actCatalogKey = "act_catalog"

// Documents is the read side of a document collection.
type Documents interface {
	SectionIndexReader
	// Catalog returns every document's metadata in catalog order.
	Catalog(ctx context.Context) ([]DocumentMetadata, error)
}

// PassageSearcher returns the k passages closest to query.
type PassageSearcher interface {
	SearchPassages(ctx context.Context, query string, k int) ([]Passage, error)
}

type ConversationStore interface {
	ConversationHistory(ctx context.Context, emailID string) ([]Turn, error)
	LogConversation(ctx context.Context, emailID, query, response string) error
	LogRetrieverTest(ctx context.Context, query, response string) error
}

type Options struct {
	CacheTTL          time.Duration
	CacheCapacity     int
	RetrievalK        int
	DistinctFileLimit int
	// Now drives act catalog expiry. Nil uses time.Now.
	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{
		CacheTTL:          15 * time.Minute,
		CacheCapacity:     2,
		RetrievalK:        10,
		DistinctFileLimit: 5,
	}
}

type Deps struct {
	Documents     Documents
	Passages      PassageSearcher
	Conversations ConversationStore
	LLM           providers.LLMProvider
	// Ranker defaults to TFIDFRanker.
	Ranker  TitleRanker
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// Library answers questions over one legal document collection.
type Library struct {
	id      string
	opts    Options
	docs    Documents
	search  PassageSearcher
	convos  ConversationStore
	pre     *Preprocessor
	ranker  TitleRanker
	locator *SectionLocator
	answers *AnswerGenerator
	acts    *cache.TTL[string, *ActCatalog]
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewLibrary(id string, deps Deps, opts Options) *Library {
	def := DefaultOptions()
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = def.CacheTTL
	}
	if opts.CacheCapacity <= 0 {
		opts.CacheCapacity = def.CacheCapacity
	}
	if opts.RetrievalK <= 0 {
		opts.RetrievalK = def.RetrievalK
	}
	if opts.DistinctFileLimit <= 0 {
		opts.DistinctFileLimit = def.DistinctFileLimit
	}
	ranker := deps.Ranker
	if ranker == nil {
		ranker = TFIDFRanker{}
	}
	log := deps.Logger.With().Str("library", id).Logger()
	return &Library{
		id:      id,
		opts:    opts,
		docs:    deps.Documents,
		search:  deps.Passages,
		convos:  deps.Conversations,
		pre:     NewPreprocessor(deps.LLM, deps.Metrics, log),
		ranker:  ranker,
		locator: NewSectionLocator(deps.Documents, log),
		answers: NewAnswerGenerator(deps.LLM, deps.Metrics, log),
		acts:    cache.New[string, *ActCatalog](opts.CacheCapacity, opts.CacheTTL, opts.Now),
		metrics: deps.Metrics,
		log:     log,
	}
}

func (l *Library) ID() string { return l.id }

// ActCatalog returns the act catalog, rebuilding it from the document catalog
// when the cached copy has expired.
func (l *Library) ActCatalog(ctx context.Context) (*ActCatalog, error) {
	return l.acts.GetOrLoad(actCatalogKey, func() (*ActCatalog, error) {
		docs, err := l.docs.Catalog(ctx)
		if err != nil {
			return nil, fmt.Errorf("load document catalog: %w", err)
		}
		acts, err := BuildActCatalog(docs)
		if err != nil {
			return nil, err
		}
		l.metrics.CatalogBuilt()
		l.log.Info().Int("documents", len(docs)).Int("acts", acts.Len()).Msg("act catalog built")
		return acts, nil
	})
}

// SearchTitles returns up to three documents whose titles best match query.
func (l *Library) SearchTitles(ctx context.Context, query string) (out []DocumentMetadata, err error) {
	defer l.observe("search_titles", time.Now(), &err)
	processed, err := l.pre.Preprocess(ctx, query)
	if err != nil {
		return nil, err
	}
	return l.rankTitles(ctx, processed)
}

func (l *Library) rankTitles(ctx context.Context, fragment string) ([]DocumentMetadata, error) {
	docs, err := l.docs.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document catalog: %w", err)
	}
	return TopTitles(l.ranker, docs, fragment, TitleMatchLimit)
}

// SearchSections resolves "section N of <title>" to the section in the best
// matching document followed by its occurrences in the rest of that act.
func (l *Library) SearchSections(ctx context.Context, query string) (out []DocumentSection, err error) {
	defer l.observe("search_sections", time.Now(), &err)
	processed, err := l.pre.Preprocess(ctx, query)
	if err != nil {
		return nil, err
	}
	ref, err := ParseSectionReference(processed)
	if err != nil {
		return nil, err
	}
	number, err := NormalizeSectionNumber(ref.Token)
	if err != nil {
		return nil, err
	}
	l.log.Debug().Str("section", number).Str("title", ref.Title).Msg("section reference parsed")

	matches, err := l.rankTitles(ctx, ref.Title)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: collection %s has no documents", ErrSectionNotFound, l.id)
	}
	acts, err := l.ActCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return l.locator.Locate(ctx, number, matches[0], acts)
}

// GeneralSearch answers query from the closest passages. With history set,
// earlier exchanges of emailID are replayed to the model.
func (l *Library) GeneralSearch(ctx context.Context, query, emailID string, history bool) (answer string, err error) {
	defer l.observe("general_search", time.Now(), &err)
	processed, err := l.pre.Preprocess(ctx, query)
	if err != nil {
		return "", err
	}
	passages, err := l.search.SearchPassages(ctx, query, l.opts.RetrievalK)
	if err != nil {
		return "", wrapProviderError("search passages", err)
	}
	var turns []Turn
	if history && l.convos != nil && emailID != "" {
		turns, err = l.convos.ConversationHistory(ctx, emailID)
		if err != nil {
			return "", fmt.Errorf("load conversation history: %w", err)
		}
	}
	answer, err = l.answers.Generate(ctx, processed, passages, turns)
	if err != nil {
		return "", err
	}
	if l.convos != nil && emailID != "" {
		if err := l.convos.LogConversation(ctx, emailID, query, answer); err != nil {
			l.log.Warn().Err(err).Msg("store conversation log")
		}
	}
	return answer, nil
}

// RetrieverTest answers query without history, declining when the passages
// come from too many distinct files. Every exchange is logged.
func (l *Library) RetrieverTest(ctx context.Context, query string) (answer string, err error) {
	defer l.observe("retriever_test", time.Now(), &err)
	if _, err := l.pre.Preprocess(ctx, query); err != nil {
		return "", err
	}
	passages, err := l.search.SearchPassages(ctx, query, l.opts.RetrievalK)
	if err != nil {
		return "", wrapProviderError("search passages", err)
	}
	if n := DistinctFiles(passages); n >= l.opts.DistinctFileLimit {
		l.log.Debug().Int("files", n).Msg("passages too spread out")
		answer = ActNameRequired
	} else {
		answer, err = l.answers.Generate(ctx, query, passages, nil)
		if err != nil {
			return "", err
		}
	}
	if l.convos != nil {
		if err := l.convos.LogRetrieverTest(ctx, query, answer); err != nil {
			l.log.Warn().Err(err).Msg("store retriever testing log")
		}
	}
	return answer, nil
}

// DistinctFiles counts the distinct source files among passages.
func DistinctFiles(passages []Passage) int {
	seen := map[string]struct{}{}
	for _, p := range passages {
		seen[p.FileName] = struct{}{}
	}
	return len(seen)
}

func (l *Library) observe(op string, started time.Time, errp *error) {
	err := *errp
	l.metrics.ObserveQuery(op, started, err)
	if err != nil {
		l.log.Warn().Err(err).Str("operation", op).Msg("query failed")
	}
}
