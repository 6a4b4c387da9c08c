package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"civicengine-be/config"
	"civicengine-be/models"

	"github.com/gin-gonic/gin"
	"github.com/montanaflynn/stats"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const geoSampleCap = 1000

// resolutionRate is the resolved/total percentage, one decimal.
func resolutionRate(resolved, total int64) float64 {
	if total == 0 {
		return 0
	}
	rate, err := stats.Round(float64(resolved)/float64(total)*100, 1)
	if err != nil {
		return 0
	}
	return rate
}

// averageDays is the mean of the samples rounded to one decimal.
func averageDays(days []float64) float64 {
	if len(days) == 0 {
		return 0
	}
	mean, err := stats.Mean(days)
	if err != nil {
		return 0
	}
	rounded, err := stats.Round(mean, 1)
	if err != nil {
		return 0
	}
	return rounded
}

type geoCluster struct {
	Lng   float64 `json:"lng"`
	Lat   float64 `json:"lat"`
	Count int     `json:"count"`
}

// clusterPoints groups [lng, lat] pairs by coordinates rounded to two
// decimal places. A crude bucketing kept for heatmap compatibility, not a
// real clustering algorithm.
func clusterPoints(coords [][]float64) []geoCluster {
	clusters := []geoCluster{}
	index := map[string]int{}

	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		key := fmt.Sprintf("%.2f,%.2f", c[0], c[1])
		if i, ok := index[key]; ok {
			clusters[i].Count++
			continue
		}
		index[key] = len(clusters)
		clusters = append(clusters, geoCluster{Lng: c[0], Lat: c[1], Count: 1})
	}
	return clusters
}

// GetOverview returns the dashboard headline numbers.
func GetOverview(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	issueCollection := config.GetCollection("issues")
	userCollection := config.GetCollection("users")

	count := func(filter bson.M) int64 {
		n, err := issueCollection.CountDocuments(ctx, filter)
		if err != nil {
			return 0
		}
		return n
	}

	totalIssues := count(bson.M{})
	reportedCount := count(bson.M{"status": models.Reported})
	verifiedCount := count(bson.M{"status": models.Verified})
	inProgressCount := count(bson.M{"status": models.InProgress})
	resolvedCount := count(bson.M{"status": models.Resolved})

	totalUsers, err := userCollection.CountDocuments(ctx, bson.M{"role": models.RoleCitizen})
	if err != nil {
		totalUsers = 0
	}

	lastWeek := time.Now().AddDate(0, 0, -7)
	issuesLastWeek := count(bson.M{"createdAt": bson.M{"$gte": lastWeek}})
	resolvedLastWeek := count(bson.M{
		"status":     models.Resolved,
		"resolvedAt": bson.M{"$gte": lastWeek},
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"totalIssues": totalIssues,
			"byStatus": gin.H{
				"reported":   reportedCount,
				"verified":   verifiedCount,
				"inProgress": inProgressCount,
				"resolved":   resolvedCount,
			},
			"totalUsers":       totalUsers,
			"issuesLastWeek":   issuesLastWeek,
			"resolvedLastWeek": resolvedLastWeek,
			"resolutionRate":   resolutionRate(resolvedCount, totalIssues),
		},
	})
}

// GetByCategory returns per-category counts with resolved sub-counts.
func GetByCategory(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$category",
				"count": bson.M{"$sum": 1},
				"resolved": bson.M{
					"$sum": bson.M{"$cond": []interface{}{
						bson.M{"$eq": []interface{}{"$status", string(models.Resolved)}}, 1, 0,
					}},
				},
			},
		},
		{"$sort": bson.M{"count": -1}},
	}

	cursor, err := config.GetCollection("issues").Aggregate(ctx, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get category analytics"})
		return
	}
	defer cursor.Close(ctx)

	results := []bson.M{}
	if err := cursor.All(ctx, &results); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode category analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   results,
	})
}

// GetTrend returns the day-bucketed creation trend over a caller-specified
// window, default 30 days.
func GetTrend(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 1 {
		days = 30
	}
	startDate := time.Now().AddDate(0, 0, -days)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := []bson.M{
		{"$match": bson.M{"createdAt": bson.M{"$gte": startDate}}},
		{
			"$group": bson.M{
				"_id": bson.M{
					"date": bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
				},
				"count": bson.M{"$sum": 1},
			},
		},
		{"$sort": bson.M{"_id.date": 1}},
	}

	cursor, err := config.GetCollection("issues").Aggregate(ctx, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get trend analytics"})
		return
	}
	defer cursor.Close(ctx)

	var results []struct {
		ID struct {
			Date string `bson:"date"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode trend analytics"})
		return
	}

	trend := make([]gin.H, 0, len(results))
	for _, r := range results {
		trend = append(trend, gin.H{"date": r.ID.Date, "count": r.Count})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"trend":   trend,
	})
}

// GetResolutionTime returns average resolution time in days, overall and
// per category, from the gap between creation and resolution timestamps.
func GetResolutionTime(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status":     models.Resolved,
		"resolvedAt": bson.M{"$exists": true},
	}
	projection := bson.M{"category": 1, "createdAt": 1, "resolvedAt": 1}

	cursor, err := config.GetCollection("issues").Find(ctx, filter,
		options.Find().SetProjection(projection))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get resolution analytics"})
		return
	}
	defer cursor.Close(ctx)

	var resolved []struct {
		Category   string     `bson:"category"`
		CreatedAt  time.Time  `bson:"createdAt"`
		ResolvedAt *time.Time `bson:"resolvedAt"`
	}
	if err := cursor.All(ctx, &resolved); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode resolution analytics"})
		return
	}

	overall := []float64{}
	perCategory := map[string][]float64{}
	for _, issue := range resolved {
		if issue.ResolvedAt == nil {
			continue
		}
		days := issue.ResolvedAt.Sub(issue.CreatedAt).Hours() / 24
		overall = append(overall, days)
		perCategory[issue.Category] = append(perCategory[issue.Category], days)
	}

	byCategory := make([]gin.H, 0, len(perCategory))
	for category, days := range perCategory {
		byCategory = append(byCategory, gin.H{
			"category": category,
			"avgDays":  averageDays(days),
			"count":    len(days),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"byCategory":     byCategory,
		"overallAvgDays": averageDays(overall),
	})
}

// GetGeographicStats returns coarse coordinate clusters for heatmap
// rendering, computed over a capped sample.
func GetGeographicStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	projection := bson.M{"location": 1, "status": 1, "category": 1}

	cursor, err := config.GetCollection("issues").Find(ctx, bson.M{},
		options.Find().SetProjection(projection).SetLimit(geoSampleCap))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get geographic analytics"})
		return
	}
	defer cursor.Close(ctx)

	var issues []struct {
		Location models.GeoPoint `bson:"location"`
	}
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode geographic analytics"})
		return
	}

	coords := make([][]float64, 0, len(issues))
	for _, issue := range issues {
		coords = append(coords, issue.Location.Coordinates)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"clusters": clusterPoints(coords),
	})
}
