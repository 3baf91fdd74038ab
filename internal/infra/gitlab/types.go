package gitlab

// Webhook payload structures, one per hook family. Only the fields the
// decoder consumes are declared; the rest of the payload is ignored.

type hookUser struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

type hookProject struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	PathWithNamespace string `json:"path_with_namespace"`
	WebURL            string `json:"web_url"`
}

// hookItem is the merge_request or issue object embedded in a payload.
// Assignees and reviewers are present on some hook kinds only.
type hookItem struct {
	ID           int64      `json:"id"`
	IID          int64      `json:"iid"`
	Title        string     `json:"title"`
	URL          string     `json:"url"`
	Author       *hookUser  `json:"author"`
	Assignees    []hookUser `json:"assignees"`
	Reviewers    []hookUser `json:"reviewers"`
	SourceBranch string     `json:"source_branch"`
	TargetBranch string     `json:"target_branch"`
}

type noteHookPayload struct {
	User             hookUser    `json:"user"`
	Project          hookProject `json:"project"`
	ObjectAttributes struct {
		ID           int64  `json:"id"`
		Note         string `json:"note"`
		NoteableType string `json:"noteable_type"`
		NoteableID   int64  `json:"noteable_id"`
		URL          string `json:"url"`
	} `json:"object_attributes"`
	MergeRequest *hookItem `json:"merge_request"`
	Issue        *hookItem `json:"issue"`
}

type mergeRequestHookPayload struct {
	User             hookUser    `json:"user"`
	Project          hookProject `json:"project"`
	ObjectAttributes struct {
		hookItem
		Action string `json:"action"`
	} `json:"object_attributes"`
	Assignees []hookUser `json:"assignees"`
	Reviewers []hookUser `json:"reviewers"`
}

type pipelineHookPayload struct {
	Project          hookProject `json:"project"`
	ObjectAttributes struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
		Ref    string `json:"ref"`
		URL    string `json:"url"`
	} `json:"object_attributes"`
	MergeRequests []hookItem `json:"merge_requests"`
	// Older payloads carry a single merge_request object instead.
	MergeRequest *hookItem `json:"merge_request"`
}

type issueHookPayload struct {
	User             hookUser    `json:"user"`
	Project          hookProject `json:"project"`
	ObjectAttributes struct {
		hookItem
		Action string `json:"action"`
	} `json:"object_attributes"`
	Assignees []hookUser `json:"assignees"`
	Labels    []struct {
		Title string `json:"title"`
	} `json:"labels"`
}

// API response shapes.

type apiUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

type apiProject struct {
	ID                int64  `json:"id"`
	PathWithNamespace string `json:"path_with_namespace"`
}

type apiHook struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

type apiPipeline struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}
