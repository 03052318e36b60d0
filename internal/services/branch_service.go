package services

import (
	"context"
	"sort"

	"github.com/dadanbeck/canvass/internal/models"
)

// A question in the navigation graph view. Rank is the layer the node
// lands on when the graph is drawn top to bottom.
type GraphNode struct {
	ID       int                 `json:"id"`
	Name     string              `json:"name"`
	Label    string              `json:"label"`
	Type     models.QuestionType `json:"type"`
	Position int                 `json:"position"`
	Rank     int                 `json:"rank"`
}

// One conditional branch: answering From with Answer leads to To.
type GraphEdge struct {
	From   int    `json:"from"`
	Answer string `json:"answer"`
	To     int    `json:"to"`
}

// A next-map entry that could not become an edge.
type GraphIssue struct {
	QuestionID int    `json:"question_id"`
	Answer     string `json:"answer"`
	TargetID   int    `json:"target_id"`
	Reason     string `json:"reason"`
}

const ReasonDanglingTarget = "DANGLING_BRANCH_TARGET"

type BranchGraph struct {
	Nodes  []GraphNode  `json:"nodes"`
	Edges  []GraphEdge  `json:"edges"`
	Issues []GraphIssue `json:"issues"`
}

// Exposes the conditional navigation graph of a survey.
type BranchService interface {
	Graph(ctx context.Context, scope Scope, surveyID int) (*BranchGraph, error)
}

type branchServiceImpl struct {
	repo Repository
}

func NewBranchService(repo Repository) BranchService {
	return &branchServiceImpl{repo: repo}
}

func (s *branchServiceImpl) Graph(ctx context.Context, scope Scope, surveyID int) (*BranchGraph, error) {
	if _, err := s.repo.GetSurvey(ctx, scope, surveyID); err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(ctx, scope, surveyID)
	if err != nil {
		return nil, err
	}
	return BuildBranchGraph(questions), nil
}

// BuildBranchGraph materializes nodes and edges from the questions'
// next maps. Entries whose target is not among the supplied questions
// become issues instead of edges. The result is a pure function of the
// input: same questions in, same graph out.
func BuildBranchGraph(questions []models.Question) *BranchGraph {
	graph := &BranchGraph{
		Nodes:  make([]GraphNode, 0, len(questions)),
		Edges:  []GraphEdge{},
		Issues: []GraphIssue{},
	}

	known := make(map[int]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}

	ordered := make([]models.Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Position != ordered[j].Position {
			return ordered[i].Position < ordered[j].Position
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, q := range ordered {
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:       q.ID,
			Name:     q.Name,
			Label:    q.Label,
			Type:     q.Type,
			Position: q.Position,
		})

		answers := make([]string, 0, len(q.NextMap))
		for answer := range q.NextMap {
			answers = append(answers, answer)
		}
		sort.Strings(answers)

		for _, answer := range answers {
			target := q.NextMap[answer]
			if !known[target] {
				graph.Issues = append(graph.Issues, GraphIssue{
					QuestionID: q.ID,
					Answer:     answer,
					TargetID:   target,
					Reason:     ReasonDanglingTarget,
				})
				continue
			}
			graph.Edges = append(graph.Edges, GraphEdge{From: q.ID, Answer: answer, To: target})
		}
	}

	assignRanks(graph)
	return graph
}

// assignRanks layers the nodes for visualization with a Kahn-style
// sweep. Branching may legitimately loop, so when no node is free the
// unvisited node with the lowest position is forced into the current
// layer and the sweep continues; that keeps layering terminating on
// any input.
func assignRanks(graph *BranchGraph) {
	index := make(map[int]int, len(graph.Nodes)) // node id -> slice index
	indegree := make(map[int]int, len(graph.Nodes))
	for i, n := range graph.Nodes {
		index[n.ID] = i
		indegree[n.ID] = 0
	}

	out := make(map[int][]int, len(graph.Nodes))
	seen := make(map[[2]int]bool, len(graph.Edges))
	for _, e := range graph.Edges {
		pair := [2]int{e.From, e.To}
		if seen[pair] || e.From == e.To {
			continue
		}
		seen[pair] = true
		out[e.From] = append(out[e.From], e.To)
		indegree[e.To]++
	}

	visited := make(map[int]bool, len(graph.Nodes))
	rank := 0
	for len(visited) < len(graph.Nodes) {
		var frontier []int
		for _, n := range graph.Nodes {
			if !visited[n.ID] && indegree[n.ID] == 0 {
				frontier = append(frontier, n.ID)
			}
		}
		if len(frontier) == 0 {
			// Cycle: force the first unvisited node in position order.
			for _, n := range graph.Nodes {
				if !visited[n.ID] {
					frontier = []int{n.ID}
					break
				}
			}
		}
		for _, id := range frontier {
			visited[id] = true
			graph.Nodes[index[id]].Rank = rank
		}
		for _, id := range frontier {
			for _, to := range out[id] {
				indegree[to]--
			}
		}
		rank++
	}
}
