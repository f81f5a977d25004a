package jira

import (
	"github.com/pmorales/jiratools/internal/models"
)

// Board is an agile board owning sprints.
type Board struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ConnectionStatus reports the outcome of a connection test.
type ConnectionStatus struct {
	Status  string      `json:"status"`
	User    string      `json:"user,omitempty"`
	Project ProjectInfo `json:"project,omitempty"`
	Server  string      `json:"server"`
	Error   string      `json:"error,omitempty"`
}

// ProjectInfo is the subset of project metadata shown by the config test.
type ProjectInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Lead        string `json:"lead,omitempty"`
	ProjectType string `json:"project_type,omitempty"`
}

// Wire shapes for the REST v2 search payload. Only the fields the analyses
// consume are decoded; the estimate and epic-link custom field IDs are the
// conventional ones and match models.KnownEstimateFields /
// models.KnownEpicLinkFields.
type searchResponse struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []issueJSON `json:"issues"`
}

type issueJSON struct {
	Key       string        `json:"key"`
	Fields    issueFields   `json:"fields"`
	Changelog *changelogRaw `json:"changelog"`
}

type issueFields struct {
	Summary     string    `json:"summary"`
	Description *string   `json:"description"`
	Status      nameField `json:"status"`
	Priority    *nameField `json:"priority"`
	IssueType   nameField `json:"issuetype"`
	Created     string    `json:"created"`
	Parent      *parentRaw `json:"parent"`
	Epic        *epicRaw   `json:"epic"`

	StoryPoints    *float64 `json:"customfield_10016"`
	StoryPointsAlt *float64 `json:"customfield_10002"`
	EpicLink       *string  `json:"customfield_10011"`
	EpicLinkAlt    *string  `json:"customfield_10014"`
}

type nameField struct {
	Name string `json:"name"`
}

type parentRaw struct {
	Key    string `json:"key"`
	Fields struct {
		IssueType nameField `json:"issuetype"`
	} `json:"fields"`
}

type epicRaw struct {
	Key string `json:"key"`
}

type changelogRaw struct {
	Histories []struct {
		Created string `json:"created"`
		Items   []struct {
			Field      string `json:"field"`
			FromString string `json:"fromString"`
			ToString   string `json:"toString"`
		} `json:"items"`
	} `json:"histories"`
}

type boardsResponse struct {
	Values []Board `json:"values"`
	IsLast bool    `json:"isLast"`
}

type sprintsResponse struct {
	Values []sprintJSON `json:"values"`
	IsLast bool         `json:"isLast"`
}

type sprintJSON struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// toIssue converts a decoded wire issue into the analysis model. A created
// timestamp that fails every known layout is a hard error: ages computed
// from a garbage date would silently corrupt every downstream figure.
func (raw issueJSON) toIssue() (models.Issue, error) {
	created, err := ParseTime(raw.Fields.Created)
	if err != nil {
		return models.Issue{}, err
	}

	issue := models.Issue{
		Key:         raw.Key,
		Summary:     raw.Fields.Summary,
		Description: raw.Fields.Description,
		Status:      raw.Fields.Status.Name,
		Type:        raw.Fields.IssueType.Name,
		Created:     created,
	}
	if raw.Fields.Priority != nil && raw.Fields.Priority.Name != "" {
		name := raw.Fields.Priority.Name
		issue.Priority = &name
	}
	if raw.Fields.Parent != nil {
		issue.Parent = &models.ParentRef{
			Key:  raw.Fields.Parent.Key,
			Type: raw.Fields.Parent.Fields.IssueType.Name,
		}
	}
	if raw.Fields.Epic != nil && raw.Fields.Epic.Key != "" {
		key := raw.Fields.Epic.Key
		issue.EpicLink = &key
	}

	if raw.Fields.StoryPoints != nil || raw.Fields.StoryPointsAlt != nil {
		issue.EstimateFields = make(map[string]float64, 2)
		if raw.Fields.StoryPoints != nil {
			issue.EstimateFields["customfield_10016"] = *raw.Fields.StoryPoints
		}
		if raw.Fields.StoryPointsAlt != nil {
			issue.EstimateFields["customfield_10002"] = *raw.Fields.StoryPointsAlt
		}
	}
	if raw.Fields.EpicLink != nil || raw.Fields.EpicLinkAlt != nil {
		issue.EpicFields = make(map[string]string, 2)
		if raw.Fields.EpicLink != nil && *raw.Fields.EpicLink != "" {
			issue.EpicFields["customfield_10011"] = *raw.Fields.EpicLink
		}
		if raw.Fields.EpicLinkAlt != nil && *raw.Fields.EpicLinkAlt != "" {
			issue.EpicFields["customfield_10014"] = *raw.Fields.EpicLinkAlt
		}
	}

	if raw.Changelog != nil {
		for _, history := range raw.Changelog.Histories {
			ts, err := ParseTime(history.Created)
			if err != nil {
				// A malformed changelog entry degrades one replay, not the
				// whole fetch. Skip it.
				continue
			}
			for _, item := range history.Items {
				issue.Changelog = append(issue.Changelog, models.StatusChange{
					Timestamp: ts,
					Field:     item.Field,
					From:      item.FromString,
					To:        item.ToString,
				})
			}
		}
	}
	return issue, nil
}

func (raw sprintJSON) toSprint() models.Sprint {
	sprint := models.Sprint{
		ID:    raw.ID,
		Name:  raw.Name,
		State: models.SprintState(raw.State),
	}
	if raw.StartDate != "" {
		if t, err := ParseTime(raw.StartDate); err == nil {
			sprint.Start = &t
		}
	}
	if raw.EndDate != "" {
		if t, err := ParseTime(raw.EndDate); err == nil {
			sprint.End = &t
		}
	}
	return sprint
}
