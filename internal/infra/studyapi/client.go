package studyapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
	"github.com/KasumiMercury/primind-session-timeline/internal/observability/logging"
	"github.com/KasumiMercury/primind-session-timeline/internal/observability/tracing"
)

const adherencePageSize = 100

type Client struct {
	baseURL    string
	lang       string
	httpClient *http.Client
}

func NewClient(baseURL, lang string) *Client {
	return &Client{
		baseURL:    baseURL,
		lang:       lang,
		httpClient: newHTTPClient(baseURL),
	}
}

func (c *Client) GetTimeline(ctx context.Context, studyID string) (*domain.Timeline, error) {
	var resp TimelineResponse
	path := "/v1/studies/" + url.PathEscape(studyID) + "/timeline"
	if err := c.getJSON(ctx, "get_timeline", path, nil, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, domain.ErrTimelineNotFound
		}
		return nil, err
	}

	timeline := ConvertTimeline(ctx, studyID, &resp, c.lang)

	slog.DebugContext(ctx, "fetched study timeline",
		slog.String("study_id", studyID),
		slog.Int("session_count", timeline.SessionCount()),
		slog.Int("schedule_count", len(resp.Schedule)),
	)

	return timeline, nil
}

func (c *Client) GetActivityEvents(ctx context.Context, participantID string) ([]domain.ActivityEvent, error) {
	var resp EventsResponse
	path := "/v1/participants/" + url.PathEscape(participantID) + "/activityevents"
	if err := c.getJSON(ctx, "get_activity_events", path, nil, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, domain.ErrParticipantNotFound
		}
		return nil, err
	}

	return convertEvents(&resp), nil
}

// GetAdherence pages through the participant's records until the reported
// total has been collected.
func (c *Client) GetAdherence(ctx context.Context, studyID, participantID string) ([]domain.AdherenceRecord, error) {
	path := "/v1/participants/" + url.PathEscape(participantID) + "/adherence"

	var items []AdherenceItem
	for offset := 0; ; {
		q := url.Values{}
		q.Set("studyId", studyID)
		q.Set("offsetBy", strconv.Itoa(offset))
		q.Set("pageSize", strconv.Itoa(adherencePageSize))

		var page AdherenceResponse
		if err := c.getJSON(ctx, "get_adherence", path, q, &page); err != nil {
			if errors.Is(err, errNotFound) {
				return nil, domain.ErrParticipantNotFound
			}
			return nil, err
		}

		items = append(items, page.Items...)
		offset += len(page.Items)
		if len(page.Items) == 0 || offset >= page.Total {
			break
		}
	}

	return convertAdherence(items), nil
}

var errNotFound = errors.New("study api resource not found")

func (c *Client) getJSON(ctx context.Context, operation, path string, query url.Values, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("failed to parse base URL: %w", err)
	}
	u = u.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	ctx, span := tracing.StartExternalAPISpan(ctx, operation, u.String())
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		tracing.RecordExternalAPIResult(span, 0, err)
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	requestID := logging.ValidateAndExtractRequestID(logging.RequestIDFromContext(ctx))
	req.Header.Set("x-request-id", requestID)
	tracing.InjectToHTTPRequest(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send request to study API",
			slog.String("url", u.String()),
			slog.String("error", err.Error()),
		)
		tracing.RecordExternalAPIResult(span, 0, err)
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		tracing.RecordExternalAPIResult(span, resp.StatusCode, nil)
		return errNotFound
	}

	if resp.StatusCode != http.StatusOK {
		slog.ErrorContext(ctx, "unexpected status code from study API",
			slog.String("url", u.String()),
			slog.Int("status_code", resp.StatusCode),
		)
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		tracing.RecordExternalAPIResult(span, resp.StatusCode, err)
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.RecordExternalAPIResult(span, resp.StatusCode, err)
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		slog.ErrorContext(ctx, "failed to decode response from study API",
			slog.String("url", u.String()),
			slog.String("error", err.Error()),
		)
		tracing.RecordExternalAPIResult(span, resp.StatusCode, err)
		return fmt.Errorf("failed to decode response: %w", err)
	}

	tracing.RecordExternalAPIResult(span, resp.StatusCode, nil)
	return nil
}
