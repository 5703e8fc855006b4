package catalog

// BuildTree nests flat rows into courses. Rows keep their input order at
// every level; rows not reachable from a course are dropped and counted.
//
// Assembly runs bottom-up so that value slices are complete before they
// are copied into their parent.
func BuildTree(courses []Course, batches []Batch, chapters []Chapter, contents []Content) ([]Course, int) {
	// Reachability runs top-down, so rows under a dropped parent are
	// dropped (and counted) too.
	courseIDs := make(map[string]bool, len(courses))
	for _, c := range courses {
		courseIDs[c.ID] = true
	}
	batchIDs := make(map[string]bool, len(batches))
	for _, b := range batches {
		if courseIDs[b.CourseID] {
			batchIDs[b.ID] = true
		}
	}
	chapterIDs := make(map[string]bool, len(chapters))
	for _, ch := range chapters {
		if batchIDs[ch.BatchID] {
			chapterIDs[ch.ID] = true
		}
	}

	orphans := 0

	// First pass: group contents under chapters
	contentsByChapter := make(map[string][]Content)
	for _, item := range contents {
		if !chapterIDs[item.ChapterID] {
			orphans++
			continue
		}
		contentsByChapter[item.ChapterID] = append(contentsByChapter[item.ChapterID], item)
	}

	// Second pass: group chapters under batches
	chaptersByBatch := make(map[string][]Chapter)
	for _, ch := range chapters {
		if !chapterIDs[ch.ID] {
			orphans++
			continue
		}
		ch.Contents = nonNil(contentsByChapter[ch.ID])
		chaptersByBatch[ch.BatchID] = append(chaptersByBatch[ch.BatchID], ch)
	}

	// Third pass: group batches under courses
	batchesByCourse := make(map[string][]Batch)
	for _, b := range batches {
		if !batchIDs[b.ID] {
			orphans++
			continue
		}
		b.Chapters = nonNil(chaptersByBatch[b.ID])
		batchesByCourse[b.CourseID] = append(batchesByCourse[b.CourseID], b)
	}

	tree := make([]Course, 0, len(courses))
	for _, c := range courses {
		c.Batches = nonNil(batchesByCourse[c.ID])
		tree = append(tree, c)
	}

	return tree, orphans
}

// nonNil keeps empty levels serialised as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// FindCourse returns the course with the given id in a snapshot, or nil.
func FindCourse(courses []Course, id string) *Course {
	for i := range courses {
		if courses[i].ID == id {
			return &courses[i]
		}
	}
	return nil
}

// Contains reports whether a node of the given kind and id is present.
func Contains(courses []Course, kind Kind, id string) bool {
	for i := range courses {
		c := &courses[i]
		if kind == KindCourse && c.ID == id {
			return true
		}
		for j := range c.Batches {
			b := &c.Batches[j]
			if kind == KindBatch && b.ID == id {
				return true
			}
			for k := range b.Chapters {
				ch := &b.Chapters[k]
				if kind == KindChapter && ch.ID == id {
					return true
				}
				if kind != KindContent {
					continue
				}
				for _, item := range ch.Contents {
					if item.ID == id {
						return true
					}
				}
			}
		}
	}
	return false
}
