package navigator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
)

// DecisionTree is a CART classifier using Gini impurity. Nodes are stored
// in preorder; child links are indices into the same slice.
type DecisionTree struct {
	maxDepth        int
	minSamplesSplit int

	classes  []string
	features []string
	nodes    []TreeNode
}

// TreeNode is one split or leaf. Counts holds the training class
// distribution that reached the node.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Counts    []int   `json:"counts"`
	Leaf      bool    `json:"leaf"`
}

type treeFile struct {
	Classes  []string   `json:"classes"`
	Features []string   `json:"features"`
	Nodes    []TreeNode `json:"nodes"`
}

// NewDecisionTree creates an untrained tree. maxDepth <= 0 grows until every
// leaf is pure; minSamplesSplit below 2 is raised to 2.
func NewDecisionTree(maxDepth, minSamplesSplit int) *DecisionTree {
	if maxDepth < 0 {
		maxDepth = 0
	}
	if minSamplesSplit < 2 {
		minSamplesSplit = 2
	}
	return &DecisionTree{maxDepth: maxDepth, minSamplesSplit: minSamplesSplit}
}

// SetFeatureNames attaches column names used by ExportText.
func (dt *DecisionTree) SetFeatureNames(names []string) {
	dt.features = cloneStrings(names)
}

// Train fits the tree on features and their labels.
func (dt *DecisionTree) Train(features [][]float64, labels []string) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return fmt.Errorf("features and labels size mismatch: %d vs %d", len(features), len(labels))
	}
	width := len(features[0])
	for i, row := range features {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
	}
	if dt.minSamplesSplit < 2 {
		dt.minSamplesSplit = 2
	}

	dt.classes = sortedUnique(labels)
	classIdx := make(map[string]int, len(dt.classes))
	for i, c := range dt.classes {
		classIdx[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = classIdx[l]
	}
	indices := make([]int, len(features))
	for i := range indices {
		indices[i] = i
	}

	b := &treeBuilder{
		x:               features,
		y:               y,
		nClasses:        len(dt.classes),
		maxDepth:        dt.maxDepth,
		minSamplesSplit: dt.minSamplesSplit,
	}
	b.build(indices, 0)
	dt.nodes = b.nodes
	return nil
}

// Predict walks the tree and returns the majority class of the reached leaf
// together with its share of the leaf's training rows.
func (dt *DecisionTree) Predict(features []float64) (string, float64, error) {
	leaf, err := dt.leafFor(features)
	if err != nil {
		return "", 0, err
	}
	best := argmax(leaf.Counts)
	return dt.classes[best], share(leaf.Counts, best), nil
}

// PredictProba returns the class distribution of the reached leaf, keyed by class.
func (dt *DecisionTree) PredictProba(features []float64) (map[string]float64, error) {
	leaf, err := dt.leafFor(features)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(dt.classes))
	for i, c := range dt.classes {
		out[c] = share(leaf.Counts, i)
	}
	return out, nil
}

func (dt *DecisionTree) leafFor(features []float64) (TreeNode, error) {
	if len(dt.nodes) == 0 {
		return TreeNode{}, ErrNotTrained
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.Leaf {
			return node, nil
		}
		if node.Feature < 0 || node.Feature >= len(features) {
			return TreeNode{}, errors.New("feature index out of range")
		}
		next := node.Right
		if features[node.Feature] <= node.Threshold {
			next = node.Left
		}
		// Children always follow their parent in preorder.
		if next <= idx || next >= len(dt.nodes) {
			return TreeNode{}, errors.New("invalid tree state")
		}
		idx = next
	}
}

// Features returns the feature names the tree was trained with.
func (dt *DecisionTree) Features() []string {
	return cloneStrings(dt.features)
}

// Classes returns the sorted class labels.
func (dt *DecisionTree) Classes() []string {
	return cloneStrings(dt.classes)
}

// NodeCount returns the number of nodes.
func (dt *DecisionTree) NodeCount() int {
	return len(dt.nodes)
}

// LeafCount returns the number of leaves.
func (dt *DecisionTree) LeafCount() int {
	n := 0
	for _, node := range dt.nodes {
		if node.Leaf {
			n++
		}
	}
	return n
}

// Depth returns the length of the longest root to leaf path.
func (dt *DecisionTree) Depth() int {
	if len(dt.nodes) == 0 {
		return 0
	}
	return dt.depthFrom(0)
}

func (dt *DecisionTree) depthFrom(idx int) int {
	node := dt.nodes[idx]
	if node.Leaf {
		return 0
	}
	l := dt.depthFrom(node.Left)
	r := dt.depthFrom(node.Right)
	if r > l {
		l = r
	}
	return l + 1
}

// ExportText writes an indented listing of the tree rules.
func (dt *DecisionTree) ExportText(w io.Writer) error {
	if len(dt.nodes) == 0 {
		return ErrNotTrained
	}
	return dt.exportNode(w, 0, 0)
}

func (dt *DecisionTree) exportNode(w io.Writer, idx, depth int) error {
	node := dt.nodes[idx]
	indent := strings.Repeat("|   ", depth) + "|--- "
	if node.Leaf {
		best := argmax(node.Counts)
		_, err := fmt.Fprintf(w, "%sclass: %s (%d/%d)\n", indent, dt.classes[best], node.Counts[best], sum(node.Counts))
		return err
	}
	name := dt.featureName(node.Feature)
	if _, err := fmt.Fprintf(w, "%s%s <= %.2f\n", indent, name, node.Threshold); err != nil {
		return err
	}
	if err := dt.exportNode(w, node.Left, depth+1); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%s >  %.2f\n", indent, name, node.Threshold); err != nil {
		return err
	}
	return dt.exportNode(w, node.Right, depth+1)
}

func (dt *DecisionTree) featureName(idx int) string {
	if idx >= 0 && idx < len(dt.features) {
		return dt.features[idx]
	}
	return fmt.Sprintf("feature_%d", idx)
}

// Save writes the trained tree as JSON.
func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return ErrNotTrained
	}
	payload, err := json.MarshalIndent(treeFile{Classes: dt.classes, Features: dt.features, Nodes: dt.nodes}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	return os.WriteFile(path, payload, 0o644)
}

// LoadDecisionTree reads a tree written by Save.
func LoadDecisionTree(path string) (*DecisionTree, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tf treeFile
	if err := json.Unmarshal(payload, &tf); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	if len(tf.Nodes) == 0 || len(tf.Classes) == 0 {
		return nil, ErrNotTrained
	}
	if err := validateNodes(tf); err != nil {
		return nil, err
	}
	dt := NewDecisionTree(0, 2)
	dt.classes = tf.Classes
	dt.features = tf.Features
	dt.nodes = tf.Nodes
	return dt, nil
}

// validateNodes rejects node lists that Predict, Depth or ExportText could
// not walk: every split must point at two later nodes.
func validateNodes(tf treeFile) error {
	n := len(tf.Nodes)
	for i, node := range tf.Nodes {
		if len(node.Counts) != len(tf.Classes) {
			return fmt.Errorf("node %d has %d class counts, want %d", i, len(node.Counts), len(tf.Classes))
		}
		if node.Leaf {
			continue
		}
		if node.Left <= i || node.Left >= n || node.Right <= i || node.Right >= n {
			return fmt.Errorf("node %d has invalid children %d and %d", i, node.Left, node.Right)
		}
		if node.Feature < 0 || (len(tf.Features) > 0 && node.Feature >= len(tf.Features)) {
			return fmt.Errorf("node %d splits on unknown feature %d", i, node.Feature)
		}
	}
	return nil
}

type treeBuilder struct {
	x               [][]float64
	y               []int
	nClasses        int
	maxDepth        int
	minSamplesSplit int
	nodes           []TreeNode
}

// build appends the subtree for indices and returns the index of its root.
func (b *treeBuilder) build(indices []int, depth int) int {
	counts := b.classCounts(indices)
	idx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Feature: -1, Left: -1, Right: -1, Counts: counts, Leaf: true})

	if isPure(counts) || len(indices) < b.minSamplesSplit || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return idx
	}
	feature, threshold, ok := b.bestSplit(indices, counts)
	if !ok {
		return idx
	}
	left := make([]int, 0, len(indices))
	right := make([]int, 0, len(indices))
	for _, i := range indices {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[idx].Leaf = false
	b.nodes[idx].Feature = feature
	b.nodes[idx].Threshold = threshold
	b.nodes[idx].Left = l
	b.nodes[idx].Right = r
	return idx
}

func (b *treeBuilder) classCounts(indices []int) []int {
	counts := make([]int, b.nClasses)
	for _, i := range indices {
		counts[b.y[i]]++
	}
	return counts
}

type valueLabel struct {
	value float64
	label int
}

// bestSplit scans every feature and every midpoint between consecutive
// distinct values. Ties keep the first candidate found.
func (b *treeBuilder) bestSplit(indices []int, total []int) (int, float64, bool) {
	n := len(indices)
	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := math.MaxFloat64
	pairs := make([]valueLabel, n)
	left := make([]int, b.nClasses)
	right := make([]int, b.nClasses)

	for f := 0; f < len(b.x[indices[0]]); f++ {
		for k, i := range indices {
			pairs[k] = valueLabel{value: b.x[i][f], label: b.y[i]}
		}
		sort.SliceStable(pairs, func(a, c int) bool { return pairs[a].value < pairs[c].value })
		if pairs[0].value == pairs[n-1].value {
			continue
		}
		for c := range left {
			left[c] = 0
			right[c] = total[c]
		}
		for k := 0; k < n-1; k++ {
			left[pairs[k].label]++
			right[pairs[k].label]--
			if pairs[k].value == pairs[k+1].value {
				continue
			}
			nl := k + 1
			nr := n - nl
			impurity := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
			if impurity < bestImpurity-1e-12 {
				bestImpurity = impurity
				bestFeature = f
				bestThreshold = (pairs[k].value + pairs[k+1].value) / 2
			}
		}
	}
	if bestFeature < 0 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		impurity -= p * p
	}
	return impurity
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// argmax returns the first index holding the largest count.
func argmax(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}

func share(counts []int, idx int) float64 {
	total := sum(counts)
	if total == 0 {
		return 0
	}
	return float64(counts[idx]) / float64(total)
}

func sum(counts []int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

func sortedUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
