package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// setup-bucket prepares the S3 bucket used for task attachments: creates it
// when missing, makes attachments/* publicly readable and checks that the
// configured key can write and delete objects.
func main() {
	// Load .env
	_ = godotenv.Load()

	endpoint := os.Getenv("S3_ENDPOINT")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")
	bucket := os.Getenv("S3_BUCKET")
	useSSL := os.Getenv("S3_USE_SSL") == "true"
	region := os.Getenv("S3_REGION")

	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("  Attachment Bucket Setup")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("\nEndpoint: %s\n", endpoint)
	fmt.Printf("Bucket: %s\n", bucket)
	fmt.Printf("Region: %s\n", region)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		log.Fatalf("Failed to check bucket: %v", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			log.Fatalf("Failed to create bucket '%s': %v", bucket, err)
		}
		fmt.Printf("\n✓ Bucket '%s' created\n", bucket)
	} else {
		fmt.Printf("\n✓ Bucket '%s' exists\n", bucket)
	}

	// attachment links are handed out as plain URLs, so attachments/* is public-read
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Sid":       "PublicReadAttachments",
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    []string{"s3:GetObject"},
				"Resource":  []string{fmt.Sprintf("arn:aws:s3:::%s/attachments/*", bucket)},
			},
		},
	}

	policyJSON, _ := json.MarshalIndent(policy, "", "  ")

	fmt.Println("\n--- Setting Bucket Policy ---")
	fmt.Println(string(policyJSON))

	if err := client.SetBucketPolicy(ctx, bucket, string(policyJSON)); err != nil {
		log.Printf("⚠️  Warning: Failed to set policy: %v", err)
	} else {
		fmt.Println("\n✓ Bucket policy set successfully")
	}

	fmt.Println("\n--- Testing Basic Operations ---")

	fmt.Print("Testing ListObjects... ")
	listOK := true
	for obj := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: "attachments/", MaxKeys: 1}) {
		if obj.Err != nil {
			fmt.Printf("❌ Failed: %v\n", obj.Err)
			listOK = false
			break
		}
	}
	if listOK {
		fmt.Println("✓ OK")
	}

	fmt.Print("Testing PutObject... ")
	testKey := "attachments/_setup/upload-test.txt"
	testContent := []byte("test content for upload permission check")
	_, err = client.PutObject(ctx, bucket, testKey,
		bytes.NewReader(testContent), int64(len(testContent)),
		minio.PutObjectOptions{ContentType: "text/plain"})
	if err != nil {
		fmt.Printf("❌ Failed: %v\n", err)
	} else {
		fmt.Println("✓ OK")

		fmt.Print("Testing RemoveObject... ")
		if err := client.RemoveObject(ctx, bucket, testKey, minio.RemoveObjectOptions{}); err != nil {
			fmt.Printf("❌ Failed: %v\n", err)
		} else {
			fmt.Println("✓ OK")
		}
	}

	fmt.Println("\n═══════════════════════════════════════════════════════════════")
	fmt.Println("  Setup Complete!")
	fmt.Println("═══════════════════════════════════════════════════════════════")
}
