package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/flowdeskhq/flowdesk/app/models"
	"github.com/flowdeskhq/flowdesk/app/repository"
	"github.com/flowdeskhq/flowdesk/internal/pkg/entitlements"
	"github.com/flowdeskhq/flowdesk/internal/pkg/middleware"
	"github.com/flowdeskhq/flowdesk/internal/pkg/storage"
	"github.com/flowdeskhq/flowdesk/internal/pkg/usercontext"
)

const presignExpiry = 15 * time.Minute

// HandleUploadResource stores a multipart file in S3 and records its
// metadata. The storage quota of the workspace owner's plan tier applies.
func HandleUploadResource(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	ctx := usercontext.GetUserContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "multipart field 'file' is required")
	}

	repo := repository.GetGlobalFactory().GetResourceRepository()
	used, err := repo.SumSizeByWorkspace(workspace.ID)
	if err != nil {
		return internalError(c, "Failed to check storage usage")
	}
	if quota := entitlements.StorageQuotaBytes(workspaceTier(workspace.OwnerID)); quota > 0 && used+fileHeader.Size > quota {
		return errorJSON(c, fiber.StatusForbidden, "storage_quota_exceeded", "Storage quota for the current plan is exceeded")
	}

	var projectID *uint
	if puuid := c.FormValue("project_uuid"); puuid != "" {
		project, err := repository.GetGlobalFactory().GetProjectRepository().GetByUUID(puuid)
		if err != nil || project.WorkspaceID != workspace.ID {
			return badRequest(c, "unknown project")
		}
		projectID = &project.ID
	}

	client, err := storage.GetClient()
	if err != nil {
		return internalError(c, "Object storage unavailable")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return internalError(c, "Failed to read upload")
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	objectKey := fmt.Sprintf("resources/%s/%s", workspace.UUID, uuid.New().String())
	if err := client.Upload(c.Context(), objectKey, mimeType, file, fileHeader.Size); err != nil {
		log.Errorf("[Resource] upload to %s failed: %v", objectKey, err)
		return internalError(c, "Failed to store file")
	}

	resource := &models.Resource{
		WorkspaceID: workspace.ID,
		ProjectID:   projectID,
		Name:        fileHeader.Filename,
		MimeType:    mimeType,
		SizeBytes:   fileHeader.Size,
		ObjectKey:   objectKey,
		UploadedBy:  ctx.UserID,
	}
	if err := repo.Create(resource); err != nil {
		// Best effort: don't leave the orphaned object behind.
		_ = client.Delete(c.Context(), objectKey)
		return internalError(c, "Failed to record file")
	}
	return c.Status(fiber.StatusCreated).JSON(resource)
}

// HandleListResources lists the workspace's stored files.
func HandleListResources(c *fiber.Ctx) error {
	workspace := middleware.WorkspaceFromLocals(c)
	resources, err := repository.GetGlobalFactory().GetResourceRepository().ListByWorkspace(workspace.ID)
	if err != nil {
		return internalError(c, "Failed to load resources")
	}
	used, err := repository.GetGlobalFactory().GetResourceRepository().SumSizeByWorkspace(workspace.ID)
	if err != nil {
		return internalError(c, "Failed to load storage usage")
	}
	return c.JSON(fiber.Map{"resources": resources, "storage_used_bytes": used})
}

// HandleDownloadResource redirects to a short-lived presigned S3 URL.
func HandleDownloadResource(c *fiber.Ctx) error {
	resource, err := resourceInWorkspace(c)
	if err != nil {
		return err
	}

	client, err := storage.GetClient()
	if err != nil {
		return internalError(c, "Object storage unavailable")
	}
	url, err := client.PresignDownload(c.Context(), resource.ObjectKey, resource.Name, presignExpiry)
	if err != nil {
		return internalError(c, "Failed to create download link")
	}
	return c.Redirect(url, fiber.StatusTemporaryRedirect)
}

// HandleDeleteResource removes the S3 object, then the metadata row.
func HandleDeleteResource(c *fiber.Ctx) error {
	resource, err := resourceInWorkspace(c)
	if err != nil {
		return err
	}

	client, err := storage.GetClient()
	if err != nil {
		return internalError(c, "Object storage unavailable")
	}
	if err := client.Delete(c.Context(), resource.ObjectKey); err != nil {
		log.Warnf("[Resource] deleting object %s failed: %v", resource.ObjectKey, err)
	}

	if err := repository.GetGlobalFactory().GetResourceRepository().Delete(resource.ID); err != nil {
		return internalError(c, "Failed to delete resource")
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

func resourceInWorkspace(c *fiber.Ctx) (*models.Resource, error) {
	workspace := middleware.WorkspaceFromLocals(c)
	resource, err := repository.GetGlobalFactory().GetResourceRepository().GetByUUID(c.Params("resourceUUID"))
	if err != nil {
		if isNotFound(err) {
			return nil, notFound(c, "Resource not found")
		}
		return nil, internalError(c, "Failed to load resource")
	}
	if resource.WorkspaceID != workspace.ID {
		return nil, notFound(c, "Resource not found")
	}
	return resource, nil
}
