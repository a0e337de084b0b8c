// Package memory is the recall core of an agent's memory stream.
//
// The memory stream stores experiences (observations, reflections and plans)
// and, given a query and the current time, selects the ones most worth
// recalling.
//
// Architecture:
//   - Store: append-only record collection plus a parallel ANN index keyed by
//     sequence number (chromem-go in the local build)
//   - Embedder: text-to-vector conversion (mock, ONNX, Gemini, cached)
//   - Scorer: recency, relevance and importance, each min-max normalized
//     across the candidate set and summed
//   - Manager: embed, fetch candidates, score, rank, stamp last-viewed
//   - Hierarchy: individual/team/organization task stores fed by plans
//
// Retrieval:
//  1. The query is embedded.
//  2. Up to RetrievalLimit candidates come back from the ANN index.
//  3. Candidates are scored; non-positive totals are dropped.
//  4. Survivors are stable-sorted by score and truncated to RetrievalLimit.
//  5. Returned records get LastViewed set to the query time.
//
// Task relevance is a separate signal (Manager.TaskRelevant) computed over
// the same candidate set; it never changes the ranking.
//
// A Store is a single owned resource guarded by its own mutex. Share one
// Store per memory stream and never copy it.
package memory
